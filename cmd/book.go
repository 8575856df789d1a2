package cmd

import (
	"fmt"

	"github.com/example/court-scheduler/internal/portal"
	"github.com/spf13/cobra"
)

func newBookCmd() *cobra.Command {
	var index int
	var venues []string

	c := &cobra.Command{
		Use:   "book \"<timeframe>\"",
		Short: "Search for slots and book one",
		Long: `Search for free slots in the given timeframe and book one of them.
Slot tokens expire with the scrape session, so booking always starts from a
fresh search. By default the slot your history prefers is chosen (first slot
when there is no history yet); pass --index to pick a specific result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			tf := a.parser.Parse(args[0])
			slots := a.aggregator.Search(ctx, tf.Date, tf.StartTime, tf.EndTime, venueSet(venues))
			portal.SortSlots(slots)
			if len(slots) == 0 {
				return fmt.Errorf("no free slots on %s between %s and %s",
					tf.Date.Format("02.01.2006"), tf.StartTime, tf.EndTime)
			}

			pick := index
			if pick < 0 {
				pick = 0
				if idx, ok := a.prefs.PreferredIndex(slots); ok {
					pick = idx
				}
			}
			if pick >= len(slots) {
				return fmt.Errorf("index %d out of range, found %d slots", pick, len(slots))
			}

			slot := slots[pick]
			fmt.Printf("Booking %s, %s on %s at %s...\n",
				slot.VenueName, slot.CourtName, slot.Date, slot.Time)

			ok, msg := a.executor.Book(ctx, slot)
			fmt.Println(msg)
			if !ok {
				return fmt.Errorf("booking failed")
			}
			return nil
		},
	}

	c.Flags().IntVar(&index, "index", -1, "book the n-th search result instead of the preferred one")
	c.Flags().StringSliceVar(&venues, "venue", nil, `restrict to a venue ("arsenal" or "post sv"); repeatable`)
	return c
}
