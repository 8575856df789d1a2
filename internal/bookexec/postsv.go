package bookexec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/creds"
	"github.com/example/court-scheduler/internal/portal/postsv"
	"github.com/go-resty/resty/v2"
)

// PostSVForm books a Post SV slot by loading the reservation page behind the
// slot's booking link and re-submitting its form. The Contao form carries
// hidden state (REQUEST_TOKEN, FORM_SUBMIT) that changes per page load, so
// every field is harvested from the live page rather than hardcoded.
type PostSVForm struct {
	base    string
	creds   *creds.Store
	timeout time.Duration
	logger  *slog.Logger
}

func NewPostSVForm(base string, credStore *creds.Store, timeout time.Duration, logger *slog.Logger) *PostSVForm {
	return &PostSVForm{base: strings.TrimRight(base, "/"), creds: credStore, timeout: timeout, logger: logger}
}

func (s *PostSVForm) Name() string { return "postsv-form" }

func (s *PostSVForm) Attempt(ctx context.Context, slot booking.Slot) booking.Result {
	c, ok := s.creds.Get(booking.VenuePostSV)
	if !ok {
		return failed(booking.CodeNoCredentials, "No credentials found for Post SV Wien")
	}
	if slot.BookingLink == "" {
		return failed(booking.CodeMissingToken, "No booking link found in slot data; re-run the search and book from a fresh result")
	}

	client := postsv.NewClient(s.timeout)
	if err := postsv.Login(ctx, client, s.base, c); err != nil {
		return resultFromError(err, "Login to Post SV failed")
	}

	bookingURL := postsv.ResolveBookingURL(s.base, slot.BookingLink)
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Referer", s.base+"/tennis.html").
		Get(bookingURL)
	if err != nil {
		return failed(booking.CodeTransport, fmt.Sprintf("Loading the reservation page failed: %v", err))
	}
	if resp.StatusCode() != 200 {
		return failed(booking.CodeTransport, fmt.Sprintf("Reservation page returned HTTP status %d", resp.StatusCode()))
	}

	form, err := harvestForm(resp.Body())
	if err != nil {
		return resultFromError(err, "Booking failed")
	}

	resp, err = client.R().
		SetContext(ctx).
		SetHeader("Referer", bookingURL).
		SetFormData(form).
		Post(bookingURL)
	if err != nil {
		return failed(booking.CodeTransport, fmt.Sprintf("Submitting the reservation failed: %v", err))
	}

	return s.interpret(resp, slot)
}

// harvestForm rebuilds the reservation form from the page: every named
// non-submit input keeps its value, each select takes its first option, and
// the submit button's own name/value pair is included since Contao checks it.
func harvestForm(page []byte) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, booking.Errorf(booking.CodeValidation, "could not parse the reservation page")
	}
	form := doc.Find("form").First()
	if form.Length() == 0 {
		return nil, booking.Errorf(booking.CodeValidation, "could not find the booking form on the page")
	}

	fields := make(map[string]string)
	form.Find("input").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		if name == "" {
			return
		}
		typ, _ := sel.Attr("type")
		value, _ := sel.Attr("value")
		if strings.EqualFold(typ, "submit") {
			if value == "" {
				value = "Speichern"
			}
		}
		fields[name] = value
	})
	form.Find("select").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		if name == "" {
			return
		}
		value, ok := sel.Find("option").First().Attr("value")
		if !ok {
			value = sel.Find("option").First().Text()
		}
		fields[name] = value
	})
	return fields, nil
}

func (s *PostSVForm) interpret(resp *resty.Response, slot booking.Slot) booking.Result {
	if resp.StatusCode() != 200 {
		return failed(booking.CodeTransport, fmt.Sprintf("Booking failed with HTTP status %d", resp.StatusCode()))
	}

	final := strings.ToLower(resp.RawResponse.Request.URL.String())
	if strings.Contains(final, "reservierung") {
		return booking.Result{
			Outcome: booking.OutcomeSuccess,
			Message: fmt.Sprintf("Successfully booked %s on %s at %s", slot.CourtName, slot.Date, slot.Time),
		}
	}

	body := strings.ToLower(string(resp.Body()))
	if strings.Contains(body, "fehler") || strings.Contains(body, "error") {
		return failed(booking.CodeValidation, "Booking failed - the portal reported an error on the confirmation page")
	}

	return booking.Result{
		Outcome: booking.OutcomeUnverified,
		Message: fmt.Sprintf("Booking submitted for %s on %s at %s", slot.CourtName, slot.Date, slot.Time),
	}
}
