// Package trainer finds available tennis trainers at the Arsenal portal. The
// booking-data endpoint that backs the reservation dialog also lists which
// trainers can be added to a slot, so availability is discovered by probing
// that endpoint across courts and hours.
package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/creds"
	"github.com/example/court-scheduler/internal/portal/arsenal"
	"github.com/go-resty/resty/v2"
)

// maxCourts bounds how many courts are probed per sweep. Trainer rosters
// barely differ between courts, so a handful is enough.
const maxCourts = 5

// probeDelay spaces the booking-data requests out a little.
const probeDelay = 300 * time.Millisecond

type Trainer struct {
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name"`
}

// Slot is one time window with at least one trainer available.
type Slot struct {
	Venue     string    `json:"venue"`
	Date      string    `json:"date"`
	DayOfWeek string    `json:"day_of_week"`
	TimeStart string    `json:"time_start"`
	TimeEnd   string    `json:"time_end"`
	Price     string    `json:"price,omitempty"`
	CourtName string    `json:"court_name"`
	Trainers  []Trainer `json:"trainers"`
}

type Finder struct {
	base    string
	creds   *creds.Store
	timeout time.Duration
	logger  *slog.Logger
}

func New(baseURL string, credStore *creds.Store, timeout time.Duration, logger *slog.Logger) *Finder {
	return &Finder{base: strings.TrimRight(baseURL, "/"), creds: credStore, timeout: timeout, logger: logger}
}

// Find sweeps the requested window in two-hour steps across the first few
// courts and returns the deduplicated trainer slots. nameFilter, when
// non-empty, keeps only trainers whose name contains it (case-insensitive).
func (f *Finder) Find(ctx context.Context, date time.Time, startTime, endTime, nameFilter string) ([]Slot, error) {
	c, ok := f.creds.Get(booking.VenueArsenal)
	if !ok {
		return nil, booking.Errorf(booking.CodeNoCredentials, "no credentials for Tenniszentrum Arsenal")
	}

	client := arsenal.NewClient(f.timeout)
	if _, err := arsenal.Login(ctx, client, f.base, c.Username, c.Password); err != nil {
		return nil, err
	}

	courts, err := arsenal.FetchCalendar(ctx, client, f.base, date)
	if err != nil {
		return nil, err
	}
	if len(courts) > maxCourts {
		courts = courts[:maxCourts]
	}

	startHour := hourOf(startTime)
	endHour := hourOf(endTime)

	var all []Slot
	for hour := startHour; hour < endHour; hour += 2 {
		probeTime := fmt.Sprintf("%02d:00", hour)
		for _, court := range courts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(probeDelay):
			}

			slots, err := f.fetchBookingData(ctx, client, date, probeTime, court.UUID)
			if err != nil {
				f.logger.Warn("trainer probe failed",
					"court", court.Name, "time", probeTime, "err", err)
				continue
			}
			all = append(all, slots...)
		}
	}

	if nameFilter != "" {
		all = filterByName(all, nameFilter)
	}
	return dedupe(all), nil
}

// bookingDataEnvelope is the reservation dialog payload. Prices come back as
// numbers or formatted strings depending on the rate table, hence RawMessage.
type bookingDataEnvelope struct {
	Status int `json:"status"`
	Data   struct {
		SquareName  string `json:"square_name"`
		TrainerData []struct {
			TimeStart string          `json:"time_start"`
			TimeEnd   string          `json:"time_end"`
			Price     json.RawMessage `json:"price"`
			Trainers  []Trainer       `json:"trainers"`
		} `json:"trainer_data"`
	} `json:"data"`
}

func (f *Finder) fetchBookingData(ctx context.Context, client *resty.Client, date time.Time, timeStart, courtUUID string) ([]Slot, error) {
	var envelope bookingDataEnvelope
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Referer", f.base).
		SetQueryParams(map[string]string{
			"date":         date.Format("2006-01-02"),
			"time_start":   timeStart,
			"square_id":    courtUUID,
			"is_half_hour": "0",
		}).
		SetResult(&envelope).
		Get(f.base + "/calendar/booking-data/")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("booking-data status %d", resp.StatusCode())
	}
	if envelope.Status != 1 {
		return nil, nil
	}

	courtName := envelope.Data.SquareName
	if courtName == "" {
		courtName = "Unknown Court"
	}

	var out []Slot
	for _, entry := range envelope.Data.TrainerData {
		if len(entry.Trainers) == 0 {
			continue
		}
		out = append(out, Slot{
			Venue:     booking.VenueNameArsenal,
			Date:      date.Format("2006-01-02"),
			DayOfWeek: date.Format("Monday"),
			TimeStart: entry.TimeStart,
			TimeEnd:   entry.TimeEnd,
			Price:     priceString(entry.Price),
			CourtName: courtName,
			Trainers:  entry.Trainers,
		})
	}
	return out, nil
}

func priceString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if s, err := strconv.Unquote(string(trimmed)); err == nil {
		return s
	}
	return string(trimmed)
}

func filterByName(slots []Slot, name string) []Slot {
	needle := strings.ToLower(name)
	var out []Slot
	for _, s := range slots {
		var matching []Trainer
		for _, t := range s.Trainers {
			if strings.Contains(strings.ToLower(t.Name), needle) {
				matching = append(matching, t)
			}
		}
		if len(matching) > 0 {
			s.Trainers = matching
			out = append(out, s)
		}
	}
	return out
}

// dedupe collapses slots with the same window and trainer set; the sweep
// visits several courts, which mostly report the same trainer roster.
func dedupe(slots []Slot) []Slot {
	seen := make(map[string]bool)
	var out []Slot
	for _, s := range slots {
		names := make([]string, len(s.Trainers))
		for i, t := range s.Trainers {
			names[i] = t.Name
		}
		sort.Strings(names)
		key := s.TimeStart + "|" + s.TimeEnd + "|" + strings.Join(names, ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func hourOf(hhmm string) int {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}
	return n
}
