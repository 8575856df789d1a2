// Package scheduler polls the portals for a timeframe until a free slot
// shows up, then books it. Useful for popular evening slots that only free
// up when someone cancels.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/court-scheduler/internal/bookexec"
	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/portal"
	"github.com/example/court-scheduler/internal/preference"
)

type Watcher struct {
	Aggregator *portal.Aggregator
	Prefs      *preference.Engine
	Executor   *bookexec.Executor
	Interval   time.Duration
	Logger     *slog.Logger
}

// ErrWindowPassed is returned when the watched timeframe ends before a slot
// opened up.
var ErrWindowPassed = fmt.Errorf("timeframe passed without a free slot")

// Run polls until a slot in the window can be booked, the window ends, or
// ctx is cancelled. It returns the booking confirmation message on success.
func (w *Watcher) Run(ctx context.Context, date time.Time, startTime, endTime string, venues map[booking.VenueKind]bool) (string, error) {
	deadline := windowEnd(date, endTime)

	t := time.NewTicker(w.Interval)
	defer t.Stop()

	// kick immediately
	if msg, ok := w.tick(ctx, date, startTime, endTime, venues); ok {
		return msg, nil
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case now := <-t.C:
			if now.After(deadline) {
				return "", ErrWindowPassed
			}
			if msg, ok := w.tick(ctx, date, startTime, endTime, venues); ok {
				return msg, nil
			}
		}
	}
}

// tick runs one search-and-book pass. ok is true only when a booking went
// through; a failed booking attempt keeps the watch alive since the slot may
// have been snatched by someone else.
func (w *Watcher) tick(ctx context.Context, date time.Time, startTime, endTime string, venues map[booking.VenueKind]bool) (string, bool) {
	slots := w.Aggregator.Search(ctx, date, startTime, endTime, venues)
	if len(slots) == 0 {
		w.Logger.Info("no free slots yet", "date", date.Format("2006-01-02"))
		return "", false
	}
	portal.SortSlots(slots)

	pick := 0
	if idx, ok := w.Prefs.PreferredIndex(slots); ok {
		pick = idx
	}
	slot := slots[pick]
	w.Logger.Info("free slot found, booking",
		"venue", slot.VenueName, "court", slot.CourtName, "time", slot.Time)

	ok, msg := w.Executor.Book(ctx, slot)
	if !ok {
		w.Logger.Warn("booking the watched slot failed", "msg", msg)
		return "", false
	}
	return msg, true
}

func windowEnd(date time.Time, endTime string) time.Time {
	end, err := time.ParseInLocation("2006-01-02 15:04",
		date.Format("2006-01-02")+" "+endTime, date.Location())
	if err != nil {
		return date.Add(24 * time.Hour)
	}
	return end
}
