// Package postsv scrapes the Post SV Wien booking portal (Contao CMS).
// Availability sits behind the member login, so the adapter authenticates
// with form credentials first; absent or rejected credentials are an expected
// condition and simply yield no slots.
package postsv

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/creds"
	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const (
	schedulePath = "/tennis.html"
	loginPath    = "/login-tennis.html"
)

var (
	reTimeParam = regexp.MustCompile(`time=(\d+)`)
	rePrice     = regexp.MustCompile(`€\s*([\d,]+)`)
)

type Adapter struct {
	base    string
	creds   *creds.Store
	timeout time.Duration
	logger  *slog.Logger
}

func New(baseURL string, credStore *creds.Store, timeout time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{base: strings.TrimRight(baseURL, "/"), creds: credStore, timeout: timeout, logger: logger}
}

func (a *Adapter) Venue() booking.VenueKind { return booking.VenuePostSV }

// NewClient returns a fresh session (own cookie jar) for one scrape or
// booking attempt. Sessions are never shared across attempts.
func NewClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
}

func (a *Adapter) Scrape(ctx context.Context, date time.Time, startTime, endTime string) []booking.Slot {
	c, ok := a.creds.Get(booking.VenuePostSV)
	if !ok {
		a.logger.Info("postsv: no credentials configured, availability requires login")
		return nil
	}

	client := NewClient(a.timeout)
	if err := Login(ctx, client, a.base, c); err != nil {
		a.logger.Warn("postsv login failed", "err", err)
		return nil
	}

	scheduleURL := fmt.Sprintf("%s%s?day=%s", a.base, schedulePath, date.Format("20060102"))
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Referer", a.base+schedulePath).
		Get(scheduleURL)
	if err != nil {
		a.logger.Warn("postsv schedule fetch failed", "err", err)
		return nil
	}
	if resp.StatusCode() != 200 || strings.Contains(strings.ToLower(finalURL(resp)), "login") {
		a.logger.Warn("postsv schedule page not accessible after login", "status", resp.StatusCode())
		return nil
	}

	slots, err := parseSchedule(resp.Body(), date, startTime, endTime)
	if err != nil {
		a.logger.Warn("postsv schedule parse failed", "err", err)
		return nil
	}
	return slots
}

// Login authenticates a session against the Contao login form. Success is
// detected by the post-login redirect landing off the login page.
func Login(ctx context.Context, client *resty.Client, base string, c creds.Credentials) error {
	if c.Empty() {
		return booking.Errorf(booking.CodeNoCredentials, "no credentials found")
	}

	loginURL := strings.TrimRight(base, "/") + loginPath
	resp, err := client.R().SetContext(ctx).Get(loginURL)
	if err != nil {
		return booking.Errorf(booking.CodeTransport, "login page: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return booking.Errorf(booking.CodeTransport, "login page parse: %v", err)
	}
	if doc.Find("form#tl_login").Length() == 0 {
		return booking.Errorf(booking.CodeLoginFailed, "login form not found")
	}

	// Contao requires the FORM_SUBMIT marker and a Referer header.
	resp, err = client.R().
		SetContext(ctx).
		SetHeader("Referer", loginURL).
		SetFormData(map[string]string{
			"FORM_SUBMIT": "tl_login",
			"username":    c.Username,
			"password":    c.Password,
		}).
		Post(loginURL)
	if err != nil {
		return booking.Errorf(booking.CodeTransport, "login post: %v", err)
	}
	if resp.StatusCode() != 200 || strings.Contains(strings.ToLower(finalURL(resp)), "login") {
		return booking.Errorf(booking.CodeLoginFailed, "login failed - check credentials")
	}
	return nil
}

// parseSchedule walks the scroll tables: one row per court, one cell per
// timeblock. Free cells carry the reservation link whose encoded time offset
// (seconds from midnight) is the slot start; the link itself is the only
// token that later permits booking and is carried through unchanged.
func parseSchedule(page []byte, date time.Time, startTime, endTime string) ([]booking.Slot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var out []booking.Slot
	doc.Find("table.scroll-table tr").Each(func(_ int, row *goquery.Selection) {
		courtName := strings.TrimSpace(row.Find("td.ressourcename").First().Text())
		if courtName == "" {
			return
		}

		row.Find("td.reservationcell.free").Each(func(_ int, cell *goquery.Selection) {
			link := cell.Find("a.reservationlink").First()
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			m := reTimeParam.FindStringSubmatch(href)
			if m == nil {
				return
			}
			seconds, _ := strconv.Atoi(m[1])
			timeStr := fmt.Sprintf("%02d:%02d", seconds/3600, (seconds%3600)/60)
			if !inTimeframe(timeStr, startTime, endTime) {
				return
			}

			price := "N/A"
			if title, ok := link.Attr("title"); ok {
				if pm := rePrice.FindStringSubmatch(title); pm != nil {
					price = "€ " + pm[1]
				}
			}

			out = append(out, booking.Slot{
				Venue:         booking.VenuePostSV,
				VenueName:     booking.VenueNamePostSV,
				CourtName:     courtName,
				Date:          date.Format("2006-01-02"),
				Time:          timeStr,
				DayOfWeek:     date.Format("Monday"),
				DurationMin:   60,
				Price:         price,
				CourtType:     "Tennis",
				IndoorOutdoor: "Mixed", // Post SV runs both indoor and outdoor courts
				Location:      "Post SV Wien, Roggendorfgasse 2",
				BookingLink:   href,
			})
		})
	})
	return out, nil
}

func inTimeframe(timeStr, startTime, endTime string) bool {
	toMin := func(s string) (int, bool) {
		h, m, ok := strings.Cut(s, ":")
		if !ok {
			return 0, false
		}
		hh, err1 := strconv.Atoi(h)
		mm, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return hh*60 + mm, true
	}
	t, ok1 := toMin(timeStr)
	s, ok2 := toMin(startTime)
	e, ok3 := toMin(endTime)
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	return s <= t && t < e
}

func finalURL(resp *resty.Response) string {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL.String()
	}
	return ""
}

// ResolveBookingURL joins a captured relative booking link onto the portal
// base.
func ResolveBookingURL(base, bookingLink string) string {
	if strings.HasPrefix(bookingLink, "http://") || strings.HasPrefix(bookingLink, "https://") {
		return bookingLink
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(bookingLink, "/")
}
