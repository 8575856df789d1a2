// Package history holds the two append-only logs the core shares: confirmed
// slot selections (fed to the preference engine) and booking attempts (the
// audit trail). Records are never mutated or deleted.
package history

import (
	"time"

	"github.com/example/court-scheduler/internal/booking"
)

// Selection is one confirmed user choice, trimmed from the slot that was
// picked. Capability tokens are not persisted.
type Selection struct {
	Timestamp     time.Time `json:"timestamp"`
	Venue         string    `json:"venue"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	DayOfWeek     string    `json:"day_of_week"`
	TimeOfDay     string    `json:"time_of_day"`
	Price         string    `json:"price"`
	CourtType     string    `json:"court_type"`
	Location      string    `json:"location"`
	IndoorOutdoor string    `json:"indoor_outdoor"`
}

// SelectionFromSlot trims a slot down to the fields preference scoring needs.
func SelectionFromSlot(slot booking.Slot, now time.Time) Selection {
	return Selection{
		Timestamp:     now,
		Venue:         slot.VenueName,
		Date:          slot.Date,
		Time:          slot.Time,
		DayOfWeek:     slot.DayOfWeek,
		TimeOfDay:     booking.TimeOfDayBucket(slot.Time),
		Price:         slot.Price,
		CourtType:     slot.CourtType,
		Location:      slot.Location,
		IndoorOutdoor: slot.IndoorOutdoor,
	}
}

// Attempt is one booking attempt, success or not. Exactly one is appended per
// Book invocation.
type Attempt struct {
	Timestamp time.Time    `json:"timestamp"`
	Status    string       `json:"status"` // success | failed | error
	Slot      booking.Slot `json:"slot"`
	Error     string       `json:"error,omitempty"`
}

type SelectionStore interface {
	Selections() ([]Selection, error)
	AppendSelection(Selection) error
}

type AttemptStore interface {
	Attempts() ([]Attempt, error)
	AppendAttempt(Attempt) error
}
