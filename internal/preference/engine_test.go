package preference

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/history"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	sels []history.Selection
}

func (m *memStore) Selections() ([]history.Selection, error) { return m.sels, nil }

func (m *memStore) AppendSelection(s history.Selection) error {
	m.sels = append(m.sels, s)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sel(venue, timeStr, weekday, price string) history.Selection {
	return history.Selection{
		Timestamp: time.Now(),
		Venue:     venue,
		Time:      timeStr,
		TimeOfDay: booking.TimeOfDayBucket(timeStr),
		DayOfWeek: weekday,
		Price:     price,
	}
}

func TestConfidenceThreshold(t *testing.T) {
	store := &memStore{}
	e := New(store, discard())

	for i := 0; i < ConfidenceThreshold; i++ {
		require.False(t, e.HasConfidence(), "below threshold at %d selections", i)
		_, ok := e.PreferredIndex([]booking.Slot{{VenueName: "A"}})
		require.False(t, ok, "must not recommend below threshold")
		require.NoError(t, e.LogSelection(booking.Slot{VenueName: "A", Time: "18:00"}))
	}
	require.True(t, e.HasConfidence())
	require.Equal(t, ConfidenceThreshold, e.SelectionCount())
}

func TestPreferredIndexFavorsHistoricalVenue(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 5; i++ {
		store.sels = append(store.sels, sel(booking.VenueNameArsenal, "18:00", "Monday", ""))
	}
	e := New(store, discard())

	candidates := []booking.Slot{
		{VenueName: booking.VenueNamePostSV, Time: "18:00", DayOfWeek: "Monday"},
		{VenueName: booking.VenueNameArsenal, Time: "18:00", DayOfWeek: "Monday"},
	}
	i, ok := e.PreferredIndex(candidates)
	require.True(t, ok)
	require.Equal(t, 1, i, "all-venue-A history must pick the venue-A candidate")

	slot, ok := e.PreferredSlot(candidates)
	require.True(t, ok)
	require.Equal(t, booking.VenueNameArsenal, slot.VenueName)
}

func TestPreferredIndexTimeOfDayBeatsWeekday(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 6; i++ {
		store.sels = append(store.sels, sel("X", "19:00", "Tuesday", ""))
	}
	e := New(store, discard())

	candidates := []booking.Slot{
		// weekday matches history, time of day does not
		{VenueName: "X", Time: "09:00", DayOfWeek: "Tuesday"},
		// time of day matches history, weekday does not
		{VenueName: "X", Time: "18:30", DayOfWeek: "Friday"},
	}
	i, ok := e.PreferredIndex(candidates)
	require.True(t, ok)
	require.Equal(t, 1, i, "time-of-day weight (2) outranks weekday weight (1.5)")
}

func TestPreferredIndexPriceProximity(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 5; i++ {
		store.sels = append(store.sels, sel("X", "18:00", "Monday", "20.00"))
	}
	e := New(store, discard())

	candidates := []booking.Slot{
		{VenueName: "X", Time: "18:00", DayOfWeek: "Monday", Price: "80.00"},
		{VenueName: "X", Time: "18:00", DayOfWeek: "Monday", Price: "€ 21,00"},
		{VenueName: "X", Time: "18:00", DayOfWeek: "Monday", Price: "N/A"},
	}
	i, ok := e.PreferredIndex(candidates)
	require.True(t, ok)
	require.Equal(t, 1, i, "closest price to the historical average wins")
}

func TestPreferredIndexTieBreaksToFirstCandidate(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 5; i++ {
		store.sels = append(store.sels, sel("X", "18:00", "Monday", ""))
	}
	e := New(store, discard())

	candidates := []booking.Slot{
		{VenueName: "X", Time: "18:00", DayOfWeek: "Monday", CourtName: "first"},
		{VenueName: "X", Time: "18:00", DayOfWeek: "Monday", CourtName: "second"},
	}
	i, ok := e.PreferredIndex(candidates)
	require.True(t, ok)
	require.Equal(t, 0, i)
}

func TestPreferredIndexEmptyCandidates(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 5; i++ {
		store.sels = append(store.sels, sel("X", "18:00", "Monday", ""))
	}
	e := New(store, discard())
	_, ok := e.PreferredIndex(nil)
	require.False(t, ok)
}
