// Package arsenal scrapes the Das Spiel reservation portal for the
// Tenniszentrum Arsenal. Availability is public: the calendar page embeds a
// JSON payload per court (operating hours, slot granularity, existing
// rentals) in a meta tag, so free slots are derived by set difference over
// the court's timeblock grid.
package arsenal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/example/court-scheduler/internal/booking"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const (
	defaultOpen      = "07:00:00"
	defaultClose     = "22:00:00"
	defaultTimeblock = 60
)

// Court is one entry of the embedded calendar payload.
type Court struct {
	UUID      string   `json:"uuid"`
	Name      string   `json:"name"`
	TimeStart string   `json:"time_start"` // "07:00:00"
	TimeEnd   string   `json:"time_end"`
	Timeblock int      `json:"timeblock"` // minutes
	Rentals   []Rental `json:"rentals"`
}

type Rental struct {
	TimeStart    string `json:"time_start"`
	TimeEnd      string `json:"time_end"`
	IsOwnBooking bool   `json:"is_own_booking"`
}

type Adapter struct {
	base    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient builds a fresh portal session. One session per operation; the
// cookie jar keeps the Laravel session between signin and follow-up calls.
func NewClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
}

// Login signs the session in via the portal's JSON endpoint and returns the
// CSRF token for subsequent state-changing POSTs. The portal answers the
// signin POST with a body containing "signed-in" on success.
func Login(ctx context.Context, client *resty.Client, base, email, password string) (string, error) {
	signinURL := strings.TrimRight(base, "/") + "/signin"

	resp, err := client.R().SetContext(ctx).Get(signinURL)
	if err != nil {
		return "", booking.Errorf(booking.CodeTransport, "load signin page: %v", err)
	}
	if resp.StatusCode() != 200 {
		return "", booking.Errorf(booking.CodeTransport, "signin page status %d", resp.StatusCode())
	}

	token, err := csrfToken(resp.Body())
	if err != nil {
		return "", err
	}

	resp, err = client.R().
		SetContext(ctx).
		SetHeader("X-CSRF-TOKEN", token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(map[string]string{"email": email, "pw": password}).
		Post(signinURL)
	if err != nil {
		return "", booking.Errorf(booking.CodeTransport, "signin: %v", err)
	}
	if resp.StatusCode() != 200 || !strings.Contains(string(resp.Body()), "signed-in") {
		return "", booking.Errorf(booking.CodeLoginFailed, "signin rejected (status %d)", resp.StatusCode())
	}
	return token, nil
}

func csrfToken(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", booking.Errorf(booking.CodeMissingToken, "parse signin page: %v", err)
	}
	token, ok := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	if !ok || token == "" {
		return "", booking.Errorf(booking.CodeMissingToken, "no csrf token on signin page")
	}
	return token, nil
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{base: strings.TrimRight(baseURL, "/"), timeout: timeout, logger: logger}
}

func (a *Adapter) Venue() booking.VenueKind { return booking.VenueArsenal }

func (a *Adapter) Scrape(ctx context.Context, date time.Time, startTime, endTime string) []booking.Slot {
	client := resty.New().
		SetTimeout(a.timeout).
		SetHeader("User-Agent", userAgent)

	courts, err := FetchCalendar(ctx, client, a.base, date)
	if err != nil {
		a.logger.Warn("arsenal scrape failed", "date", date.Format("2006-01-02"), "err", err)
		return nil
	}

	var out []booking.Slot
	for _, c := range courts {
		out = append(out, slotsForCourt(c, date, startTime, endTime)...)
	}
	return out
}

// FetchCalendar loads the calendar page for a date and extracts the embedded
// court payload. Shared with the trainer finder, which needs the court UUIDs.
func FetchCalendar(ctx context.Context, client *resty.Client, base string, date time.Time) ([]Court, error) {
	url := fmt.Sprintf("%s/?date=%s", base, date.Format("2006-01-02"))
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("calendar page status %d", resp.StatusCode())
	}
	return ParseCalendar(resp.Body())
}

// ParseCalendar pulls the court list out of the page's transfer-data meta
// tag. The attribute value is HTML-entity-encoded JSON.
func ParseCalendar(page []byte) ([]Court, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	raw, ok := doc.Find("meta#transfer-data-calendar").Attr("data-content")
	if !ok || raw == "" {
		return nil, fmt.Errorf("calendar meta tag not found")
	}
	// goquery decodes entities once; guard against double encoding.
	raw = strings.ReplaceAll(raw, "&quot;", `"`)

	var courts []Court
	if err := json.Unmarshal([]byte(raw), &courts); err != nil {
		return nil, fmt.Errorf("decode calendar payload: %w", err)
	}
	return courts, nil
}

// slotsForCourt generates every free timeblock-aligned slot inside the
// intersection of the user window and the court's operating hours. Rentals
// are expanded into hourly buckets; a slot is free iff its start is not in
// the booked set.
func slotsForCourt(c Court, date time.Time, userStart, userEnd string) []booking.Slot {
	open := c.TimeStart
	if open == "" {
		open = defaultOpen
	}
	closing := c.TimeEnd
	if closing == "" {
		closing = defaultClose
	}
	timeblock := c.Timeblock
	if timeblock <= 0 {
		timeblock = defaultTimeblock
	}

	booked := make(map[string]bool)
	for _, r := range c.Rentals {
		sh := hourOf(r.TimeStart)
		eh := hourOf(r.TimeEnd)
		for h := sh; h < eh; h++ {
			booked[fmt.Sprintf("%02d:00", h)] = true
		}
	}

	userStartHour, userStartMin := splitHHMM(userStart)
	userEndHour, userEndMin := splitHHMM(userEnd)
	openHour := hourOf(open)
	closeHour := hourOf(closing)

	startHour := userStartHour
	startMin := userStartMin
	if openHour > startHour {
		startHour = openHour
		startMin = 0
	}
	endHour := userEndHour
	endMin := userEndMin
	if closeHour < endHour {
		endHour = closeHour
		endMin = 0
	}

	indoor := "Outdoor"
	if strings.Contains(strings.ToUpper(c.Name), "HALLE") {
		indoor = "Indoor"
	}

	var out []booking.Slot
	cur := startHour*60 + startMin
	end := endHour*60 + endMin
	for ; cur < end; cur += timeblock {
		timeStr := fmt.Sprintf("%02d:%02d", cur/60, cur%60)
		if booked[timeStr] {
			continue
		}
		out = append(out, booking.Slot{
			Venue:         booking.VenueArsenal,
			VenueName:     booking.VenueNameArsenal,
			CourtName:     c.Name,
			Date:          date.Format("2006-01-02"),
			Time:          timeStr,
			DayOfWeek:     date.Format("Monday"),
			DurationMin:   timeblock,
			Price:         "N/A", // price not exposed in the calendar payload
			CourtType:     indoor,
			IndoorOutdoor: indoor,
			Location:      "Arsenal, Wien",
			SquareID:      c.UUID,
		})
	}
	return out
}

func hourOf(hhmmss string) int {
	h, _, _ := strings.Cut(hhmmss, ":")
	n, _ := strconv.Atoi(h)
	return n
}

func splitHHMM(hhmm string) (int, int) {
	h, m, _ := strings.Cut(hhmm, ":")
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	return hh, mm
}
