package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTrainersCmd() *cobra.Command {
	var name string

	c := &cobra.Command{
		Use:   "trainers \"<timeframe>\"",
		Short: "Find available trainers at the Arsenal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			tf := a.parser.Parse(args[0])
			fmt.Printf("Looking for trainers on %s from %s to %s\n",
				tf.Date.Format("Monday, 02.01.2006"), tf.StartTime, tf.EndTime)

			slots, err := a.trainers.Find(ctx, tf.Date, tf.StartTime, tf.EndTime, name)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				fmt.Println("No trainers available in that window.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tCOURT\tPRICE\tTRAINERS\t")
			for _, s := range slots {
				names := make([]string, len(s.Trainers))
				for i, t := range s.Trainers {
					names[i] = t.Name
				}
				fmt.Fprintf(w, "%s-%s\t%s\t%s\t%s\t\n",
					s.TimeStart, s.TimeEnd, s.CourtName, s.Price, strings.Join(names, ", "))
			}
			return w.Flush()
		},
	}

	c.Flags().StringVar(&name, "name", "", "only show trainers whose name contains this")
	return c
}
