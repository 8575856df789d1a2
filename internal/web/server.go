// Package web exposes the scheduler over a small JSON API: free-text or
// structured slot search, booking, and trainer lookup, behind cookie-session
// authentication.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/court-scheduler/internal/auth"
	"github.com/example/court-scheduler/internal/bookexec"
	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/portal"
	"github.com/example/court-scheduler/internal/preference"
	"github.com/example/court-scheduler/internal/timeframe"
	"github.com/example/court-scheduler/internal/trainer"
)

type Server struct {
	Auth       *auth.Store
	Aggregator *portal.Aggregator
	Prefs      *preference.Engine
	Executor   *bookexec.Executor
	Trainers   *trainer.Finder
	Parser     *timeframe.Parser
	Logger     *slog.Logger
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/api/search", s.Auth.RequireAuth(http.HandlerFunc(s.handleSearch)))
	mux.Handle("/api/book", s.Auth.RequireAuth(http.HandlerFunc(s.handleBook)))
	mux.Handle("/api/trainers", s.Auth.RequireAuth(http.HandlerFunc(s.handleTrainers)))

	return mux
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.Auth.Authenticate(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username/password")
		return
	}
	if err := s.Auth.SetSession(w, r, id); err != nil {
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type searchRequest struct {
	// Query is a free-text timeframe ("tomorrow 6-8pm"). When set it wins
	// over the structured fields.
	Query     string   `json:"query"`
	Date      string   `json:"date"`       // YYYY-MM-DD
	StartTime string   `json:"start_time"` // HH:MM
	EndTime   string   `json:"end_time"`   // HH:MM
	Venues    []string `json:"venues"`
}

type searchResponse struct {
	Date           string         `json:"date"`
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	Slots          []booking.Slot `json:"slots"`
	PreferredIndex *int           `json:"preferred_index"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, start, end, err := s.resolveWindow(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slots := s.Aggregator.Search(r.Context(), date, start, end, venueFilter(req.Venues))
	portal.SortSlots(slots)

	resp := searchResponse{
		Date:      date.Format("2006-01-02"),
		StartTime: start,
		EndTime:   end,
		Slots:     slots,
	}
	if idx, ok := s.Prefs.PreferredIndex(slots); ok {
		resp.PreferredIndex = &idx
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) resolveWindow(req searchRequest) (time.Time, string, string, error) {
	if req.Query != "" {
		tf := s.Parser.Parse(req.Query)
		return tf.Date, tf.StartTime, tf.EndTime, nil
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, "", "", errBadDate
	}
	start := req.StartTime
	if start == "" {
		start = timeframe.DefaultStart
	}
	end := req.EndTime
	if end == "" {
		end = timeframe.DefaultEnd
	}
	return date, start, end, nil
}

var errBadDate = &badRequestError{"date must be YYYY-MM-DD when no query is given"}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

// venueFilter maps requested venue names to the enabled set. nil means no
// restriction.
func venueFilter(names []string) map[booking.VenueKind]bool {
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

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Slot booking.Slot `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, msg := s.Executor.Book(r.Context(), req.Slot)
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "message": msg})
}

func (s *Server) handleTrainers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	start := q.Get("start_time")
	if start == "" {
		start = timeframe.DefaultStart
	}
	end := q.Get("end_time")
	if end == "" {
		end = timeframe.DefaultEnd
	}

	slots, err := s.Trainers.Find(r.Context(), date, start, end, q.Get("name"))
	if err != nil {
		s.Logger.Warn("trainer search failed", "err", err)
		writeError(w, http.StatusBadGateway, "trainer search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trainers": slots})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func Start(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}
