package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/court-scheduler/internal/scheduler"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	var venues []string

	c := &cobra.Command{
		Use:   "watch \"<timeframe>\"",
		Short: "Poll a timeframe and book as soon as a slot frees up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			tf := a.parser.Parse(args[0])
			fmt.Printf("Watching %s from %s to %s (checking every %s, Ctrl-C to stop)\n",
				tf.Date.Format("Monday, 02.01.2006"), tf.StartTime, tf.EndTime, interval)

			w := &scheduler.Watcher{
				Aggregator: a.aggregator,
				Prefs:      a.prefs,
				Executor:   a.executor,
				Interval:   interval,
				Logger:     a.logger,
			}
			msg, err := w.Run(ctx, tf.Date, tf.StartTime, tf.EndTime, venueSet(venues))
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}

	c.Flags().DurationVar(&interval, "interval", time.Minute, "how often to re-check the portals")
	c.Flags().StringSliceVar(&venues, "venue", nil, `restrict to a venue ("arsenal" or "post sv"); repeatable`)
	return c
}
