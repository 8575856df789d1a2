// Package preference learns which slots a user tends to pick and ranks new
// candidates against that history. The model is a fixed additive linear
// score over four similarity signals, not a trained classifier; below the
// confidence threshold it refuses to recommend rather than guess.
package preference

import (
	"log/slog"
	"math"
	"time"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/history"
)

// ConfidenceThreshold is the minimum number of recorded selections before the
// engine starts recommending.
const ConfidenceThreshold = 5

// Signal weights. Venue loyalty dominates, then time of day, then weekday;
// price proximity is the weakest signal.
const (
	weightVenue     = 3.0
	weightTimeOfDay = 2.0
	weightWeekday   = 1.5
	weightPrice     = 1.0
)

type Engine struct {
	store      history.SelectionStore
	selections []history.Selection
	logger     *slog.Logger
}

// New loads the selection history from the store. A store read failure is
// logged and treated as an empty history.
func New(store history.SelectionStore, logger *slog.Logger) *Engine {
	sels, err := store.Selections()
	if err != nil {
		logger.Warn("load selection history", "err", err)
	}
	return &Engine{store: store, selections: sels, logger: logger}
}

func (e *Engine) HasConfidence() bool {
	return len(e.selections) >= ConfidenceThreshold
}

func (e *Engine) SelectionCount() int {
	return len(e.selections)
}

// LogSelection appends a confirmed choice to the history and flushes it to
// the store.
func (e *Engine) LogSelection(slot booking.Slot) error {
	sel := history.SelectionFromSlot(slot, time.Now())
	e.selections = append(e.selections, sel)
	if err := e.store.AppendSelection(sel); err != nil {
		e.logger.Warn("persist selection", "err", err)
		return err
	}
	return nil
}

// PreferredIndex scores every candidate against the history and returns the
// index of the best match. ok is false when the engine is not confident or
// there are no candidates. Ties go to the earlier candidate.
func (e *Engine) PreferredIndex(candidates []booking.Slot) (int, bool) {
	if !e.HasConfidence() || len(candidates) == 0 {
		return 0, false
	}

	best := 0
	bestScore := math.Inf(-1)
	for i, c := range candidates {
		score := e.score(c)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, true
}

// PreferredSlot is PreferredIndex returning the slot itself.
func (e *Engine) PreferredSlot(candidates []booking.Slot) (booking.Slot, bool) {
	i, ok := e.PreferredIndex(candidates)
	if !ok {
		return booking.Slot{}, false
	}
	return candidates[i], true
}

func (e *Engine) score(slot booking.Slot) float64 {
	total := float64(len(e.selections))

	venueCount := 0.0
	bucketCount := 0.0
	weekdayCount := 0.0
	bucket := booking.TimeOfDayBucket(slot.Time)
	for _, s := range e.selections {
		if s.Venue != "" && s.Venue == slot.VenueName {
			venueCount++
		}
		if s.TimeOfDay != "" && s.TimeOfDay == bucket {
			bucketCount++
		}
		if s.DayOfWeek != "" && s.DayOfWeek == slot.DayOfWeek {
			weekdayCount++
		}
	}

	score := venueCount/total*weightVenue +
		bucketCount/total*weightTimeOfDay +
		weekdayCount/total*weightWeekday

	// Price proximity: skipped when either side has no usable price.
	if avg, ok := e.averagePrice(); ok {
		if p, ok := booking.ParsePrice(slot.Price); ok {
			proximity := 1 - math.Abs(p-avg)/avg
			if proximity > 0 {
				score += proximity * weightPrice
			}
		}
	}
	return score
}

func (e *Engine) averagePrice() (float64, bool) {
	sum := 0.0
	n := 0
	for _, s := range e.selections {
		if p, ok := booking.ParsePrice(s.Price); ok {
			sum += p
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
