// Package portal defines the adapter contract for one booking portal and the
// aggregator that fans a query out across all enabled portals.
package portal

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/example/court-scheduler/internal/booking"
)

// Adapter scrapes one portal for a date and time window. Implementations must
// not fail: network and parse errors are logged and produce an empty list,
// since callers cannot distinguish an outage from a fully booked day anyway.
type Adapter interface {
	Venue() booking.VenueKind
	Scrape(ctx context.Context, date time.Time, startTime, endTime string) []booking.Slot
}

// Aggregator queries adapters sequentially in registration order and
// concatenates the results. Venue is part of slot identity, so no cross-venue
// dedup happens.
type Aggregator struct {
	adapters []Adapter
	logger   *slog.Logger
}

func NewAggregator(logger *slog.Logger, adapters ...Adapter) *Aggregator {
	return &Aggregator{adapters: adapters, logger: logger}
}

// Search runs every enabled adapter. A nil enabled map means all venues; a
// venue mapped to false is skipped without being queried.
func (a *Aggregator) Search(ctx context.Context, date time.Time, startTime, endTime string, enabled map[booking.VenueKind]bool) []booking.Slot {
	var out []booking.Slot
	for _, ad := range a.adapters {
		if enabled != nil && !enabled[ad.Venue()] {
			a.logger.Info("venue disabled, skipping", "venue", ad.Venue())
			continue
		}
		slots := ad.Scrape(ctx, date, startTime, endTime)
		a.logger.Info("portal scraped", "venue", ad.Venue(), "slots", len(slots))
		out = append(out, slots...)
	}
	return out
}

// SortSlots orders slots by date then start time for display. Search itself
// guarantees no ordering beyond venue invocation order.
func SortSlots(slots []booking.Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Time < slots[j].Time
	})
}
