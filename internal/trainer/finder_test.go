package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/creds"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func credStore(t *testing.T) *creds.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	data := `{"dasspiel": {"username": "player@example.com", "password": "secret"}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return creds.NewStore(path)
}

type fakePortal struct {
	mu             sync.Mutex
	probedCourts   map[string]bool
	bookingHandler func(squareID string) string
	courts         int
}

func (p *fakePortal) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><head><meta name="csrf-token" content="tok"></head></html>`))
			return
		}
		w.Write([]byte("signed-in"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var courts []map[string]any
		for i := 0; i < p.courts; i++ {
			courts = append(courts, map[string]any{
				"uuid": fmt.Sprintf("court-%d", i+1),
				"name": fmt.Sprintf("Platz %d", i+1),
			})
		}
		payload, err := json.Marshal(courts)
		require.NoError(t, err)
		fmt.Fprintf(w, `<html><head><meta id="transfer-data-calendar" data-content="%s"></head></html>`,
			html.EscapeString(string(payload)))
	})
	mux.HandleFunc("/calendar/booking-data/", func(w http.ResponseWriter, r *http.Request) {
		squareID := r.URL.Query().Get("square_id")
		p.mu.Lock()
		p.probedCourts[squareID] = true
		p.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(p.bookingHandler(squareID)))
	})
	return httptest.NewServer(mux)
}

const trainerPayload = `{
	"status": 1,
	"data": {
		"square_name": "Platz 1",
		"trainer_data": [
			{"time_start": "10:00", "time_end": "11:00", "price": 45,
			 "trainers": [{"uuid": "t-1", "name": "Maria Huber"}, {"uuid": "t-2", "name": "Stefan Gruber"}]},
			{"time_start": "11:00", "time_end": "12:00", "price": "45,00",
			 "trainers": []}
		]
	}
}`

func TestFindReturnsTrainerSlots(t *testing.T) {
	portal := &fakePortal{
		probedCourts: map[string]bool{},
		courts:       2,
		bookingHandler: func(string) string {
			return trainerPayload
		},
	}
	srv := portal.server(t)
	defer srv.Close()

	f := New(srv.URL, credStore(t), 5*time.Second, discard())
	date := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	slots, err := f.Find(context.Background(), date, "10:00", "12:00", "")

	require.NoError(t, err)
	require.Len(t, slots, 1) // same roster on both courts collapses to one
	require.Equal(t, "10:00", slots[0].TimeStart)
	require.Equal(t, "11:00", slots[0].TimeEnd)
	require.Equal(t, "45", slots[0].Price)
	require.Equal(t, "2026-01-20", slots[0].Date)
	require.Equal(t, "Tuesday", slots[0].DayOfWeek)
	require.Len(t, slots[0].Trainers, 2)
}

func TestFindProbesAtMostFiveCourts(t *testing.T) {
	portal := &fakePortal{
		probedCourts: map[string]bool{},
		courts:       7,
		bookingHandler: func(string) string {
			return `{"status": 0}`
		},
	}
	srv := portal.server(t)
	defer srv.Close()

	f := New(srv.URL, credStore(t), 5*time.Second, discard())
	date := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	slots, err := f.Find(context.Background(), date, "10:00", "12:00", "")

	require.NoError(t, err)
	require.Empty(t, slots)
	require.Len(t, portal.probedCourts, 5)
}

func TestFindFiltersByTrainerName(t *testing.T) {
	portal := &fakePortal{
		probedCourts: map[string]bool{},
		courts:       1,
		bookingHandler: func(string) string {
			return trainerPayload
		},
	}
	srv := portal.server(t)
	defer srv.Close()

	f := New(srv.URL, credStore(t), 5*time.Second, discard())
	date := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	slots, err := f.Find(context.Background(), date, "10:00", "12:00", "huber")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Len(t, slots[0].Trainers, 1)
	require.Equal(t, "Maria Huber", slots[0].Trainers[0].Name)

	slots, err = f.Find(context.Background(), date, "10:00", "12:00", "nobody")
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestFindWithoutCredentials(t *testing.T) {
	store := creds.NewStore(filepath.Join(t.TempDir(), "missing.json"))
	f := New("http://unreachable.invalid", store, time.Second, discard())

	_, err := f.Find(context.Background(), time.Now(), "10:00", "12:00", "")
	require.Error(t, err)
}
