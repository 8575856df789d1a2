package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/portal"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var venues []string

	c := &cobra.Command{
		Use:   "search \"<timeframe>\"",
		Short: "Search both portals for free court slots",
		Long: `Search both portals for free court slots in a timeframe given as free
text, e.g. "tomorrow 6-8pm", "next monday between 10 and 12" or "21.01.2026 at 18:00".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			tf := a.parser.Parse(args[0])
			fmt.Printf("Searching %s from %s to %s\n",
				tf.Date.Format("Monday, 02.01.2006"), tf.StartTime, tf.EndTime)

			slots := a.aggregator.Search(ctx, tf.Date, tf.StartTime, tf.EndTime, venueSet(venues))
			portal.SortSlots(slots)
			if len(slots) == 0 {
				fmt.Println("No free slots found.")
				return nil
			}

			preferred := -1
			if idx, ok := a.prefs.PreferredIndex(slots); ok {
				preferred = idx
			}
			printSlots(slots, preferred)
			return nil
		},
	}

	c.Flags().StringSliceVar(&venues, "venue", nil, `restrict to a venue ("arsenal" or "post sv"); repeatable`)
	return c
}

func venueSet(names []string) map[booking.VenueKind]bool {
	if len(names) == 0 {
		return nil
	}
	enabled := map[booking.VenueKind]bool{
		booking.VenueArsenal: false,
		booking.VenuePostSV:  false,
	}
	for _, n := range names {
		if kind := booking.ResolveVenue(n); kind != booking.VenueUnknown {
			enabled[kind] = true
		}
	}
	return enabled
}

func printSlots(slots []booking.Slot, preferred int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tVENUE\tCOURT\tDATE\tTIME\tPRICE\t")
	for i, s := range slots {
		marker := ""
		if i == preferred {
			marker = " *"
		}
		fmt.Fprintf(w, "%d%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i, marker, s.VenueName, s.CourtName, s.Date, s.Time, s.Price)
	}
	w.Flush()
	if preferred >= 0 {
		fmt.Println(strings.Repeat("-", 20))
		fmt.Println("* matches your booking history")
	}
}
