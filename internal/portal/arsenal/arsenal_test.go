package arsenal

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func calendarPage(t *testing.T, courts []Court) string {
	t.Helper()
	b, err := json.Marshal(courts)
	require.NoError(t, err)
	return fmt.Sprintf(
		`<html><head><meta id="transfer-data-calendar" data-content="%s"></head><body></body></html>`,
		html.EscapeString(string(b)))
}

var testDate = time.Date(2026, 1, 21, 0, 0, 0, 0, time.Local)

func TestScrapeGeneratesFreeSlots(t *testing.T) {
	courts := []Court{
		{
			UUID:      "9892e07c-3d52-437a-94db-d474c640b2fa",
			Name:      "Platz 5 HALLE",
			TimeStart: "07:00:00",
			TimeEnd:   "22:00:00",
			Timeblock: 60,
			Rentals: []Rental{
				{TimeStart: "10:00:00", TimeEnd: "12:00:00"},
			},
		},
	}
	page := calendarPage(t, courts)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2026-01-21", r.URL.Query().Get("date"))
		_, _ = io.WriteString(w, page)
	}))
	defer srv.Close()

	a := New(srv.URL, 5*time.Second, discard())
	slots := a.Scrape(context.Background(), testDate, "09:00", "13:00")

	var times []string
	for _, s := range slots {
		times = append(times, s.Time)
	}
	require.Equal(t, []string{"09:00", "12:00"}, times, "10:00 and 11:00 are rented")

	s := slots[0]
	require.Equal(t, booking.VenueArsenal, s.Venue)
	require.Equal(t, booking.VenueNameArsenal, s.VenueName)
	require.Equal(t, "Platz 5 HALLE", s.CourtName)
	require.Equal(t, "Indoor", s.IndoorOutdoor)
	require.Equal(t, "9892e07c-3d52-437a-94db-d474c640b2fa", s.SquareID)
	require.Equal(t, 60, s.DurationMin)
	require.Equal(t, "N/A", s.Price)
	require.Equal(t, "Wednesday", s.DayOfWeek)
}

func TestScrapeHonorsVenueTimeblock(t *testing.T) {
	courts := []Court{{
		UUID:      "u-1",
		Name:      "Platz 2",
		TimeStart: "08:00:00",
		TimeEnd:   "20:00:00",
		Timeblock: 30,
	}}
	page := calendarPage(t, courts)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, page)
	}))
	defer srv.Close()

	a := New(srv.URL, 5*time.Second, discard())
	slots := a.Scrape(context.Background(), testDate, "09:00", "10:00")

	var times []string
	for _, s := range slots {
		times = append(times, s.Time)
	}
	require.Equal(t, []string{"09:00", "09:30"}, times)
	require.Equal(t, "Outdoor", slots[0].IndoorOutdoor)
}

func TestScrapeClampsToOperatingHours(t *testing.T) {
	courts := []Court{{
		UUID:      "u-2",
		Name:      "Platz 1",
		TimeStart: "10:00:00",
		TimeEnd:   "12:00:00",
		Timeblock: 60,
	}}
	page := calendarPage(t, courts)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, page)
	}))
	defer srv.Close()

	a := New(srv.URL, 5*time.Second, discard())
	slots := a.Scrape(context.Background(), testDate, "07:00", "23:00")

	var times []string
	for _, s := range slots {
		times = append(times, s.Time)
	}
	require.Equal(t, []string{"10:00", "11:00"}, times)
}

func TestScrapeIdempotentOnUnchangedCalendar(t *testing.T) {
	courts := []Court{{
		UUID:    "u-3",
		Name:    "Platz 3",
		Rentals: []Rental{{TimeStart: "18:00:00", TimeEnd: "19:00:00"}},
	}}
	page := calendarPage(t, courts)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, page)
	}))
	defer srv.Close()

	a := New(srv.URL, 5*time.Second, discard())
	first := a.Scrape(context.Background(), testDate, "17:00", "21:00")
	second := a.Scrape(context.Background(), testDate, "17:00", "21:00")
	require.Equal(t, first, second)

	for _, s := range first {
		require.NotEqual(t, "18:00", s.Time, "rented block must never appear")
	}
}

func TestScrapeSoftFailsOnErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(srv.URL, 5*time.Second, discard())
	require.Empty(t, a.Scrape(context.Background(), testDate, "09:00", "21:00"))

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html><head></head><body>no calendar here</body></html>")
	}))
	defer srv2.Close()

	a2 := New(srv2.URL, 5*time.Second, discard())
	require.Empty(t, a2.Scrape(context.Background(), testDate, "09:00", "21:00"))
}
