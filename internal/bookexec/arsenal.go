package bookexec

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/creds"
	"github.com/example/court-scheduler/internal/portal/arsenal"
	"github.com/go-resty/resty/v2"
)

// ArsenalAPI books Arsenal slots through the portal's reservation endpoint
// directly. One signed-in session per attempt; the CSRF token from signin is
// reused for the rent POST.
type ArsenalAPI struct {
	base    string
	creds   *creds.Store
	timeout time.Duration
	logger  *slog.Logger
}

func NewArsenalAPI(base string, credStore *creds.Store, timeout time.Duration, logger *slog.Logger) *ArsenalAPI {
	return &ArsenalAPI{base: strings.TrimRight(base, "/"), creds: credStore, timeout: timeout, logger: logger}
}

func (s *ArsenalAPI) Name() string { return "arsenal-api" }

func (s *ArsenalAPI) Attempt(ctx context.Context, slot booking.Slot) booking.Result {
	c, ok := s.creds.Get(booking.VenueArsenal)
	if !ok {
		return failed(booking.CodeNoCredentials, "No credentials found for Tenniszentrum Arsenal")
	}
	if slot.SquareID == "" {
		return failed(booking.CodeMissingToken, "Slot has no court id; re-run the search and book from a fresh result")
	}

	client := arsenal.NewClient(s.timeout)
	token, err := arsenal.Login(ctx, client, s.base, c.Username, c.Password)
	if err != nil {
		return resultFromError(err, "Login to Arsenal failed")
	}

	// A redirect after the rent POST is itself the confirmation signal, so
	// stop following them from here on.
	client.SetRedirectPolicy(resty.NoRedirectPolicy())

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("X-CSRF-TOKEN", token).
		SetHeader("Accept", "application/json").
		SetHeader("Referer", fmt.Sprintf("%s/?date=%s", s.base, slot.Date)).
		SetFormData(map[string]string{
			"square_id":  slot.SquareID,
			"date":       slot.Date,
			"time_start": slot.Time,
			"time_end":   booking.AddHour(slot.Time),
			"players":    "2",
			"agb":        "1",
			"_token":     token,
		}).
		Post(s.base + "/reservations/rent-squares")
	if err != nil && resp == nil {
		return failed(booking.CodeTransport, fmt.Sprintf("Booking request failed: %v", err))
	}

	return s.interpret(resp.StatusCode(), resp.Body(), slot)
}

// interpret maps the rent-squares response onto an outcome. The endpoint is
// inconsistent: sometimes a redirect, sometimes a JSON envelope with a
// numeric status flag, so both are accepted as confirmation.
func (s *ArsenalAPI) interpret(status int, body []byte, slot booking.Slot) booking.Result {
	var envelope struct {
		Status  *int   `json:"status"`
		Message string `json:"message"`
	}
	hasEnvelope := json.Unmarshal(body, &envelope) == nil && envelope.Status != nil

	switch status {
	case 200, 201, 302, 303:
		if hasEnvelope && *envelope.Status != 1 {
			msg := envelope.Message
			if msg == "" {
				msg = "the portal rejected the reservation"
			}
			return failed(booking.CodeValidation, "Booking rejected: "+msg)
		}
		return booking.Result{
			Outcome: booking.OutcomeSuccess,
			Message: fmt.Sprintf("Successfully booked %s on %s at %s", slot.CourtName, slot.Date, slot.Time),
		}
	case 422:
		msg := envelope.Message
		if msg == "" {
			msg = "the slot is no longer available"
		}
		return failed(booking.CodeValidation, "Booking rejected: "+msg)
	case 401:
		return failed(booking.CodeAuth, "Arsenal session expired during booking")
	case 403:
		return failed(booking.CodeForbidden, "Arsenal refused the booking request")
	default:
		return failed(booking.CodeTransport, fmt.Sprintf("Booking failed with HTTP status %d", status))
	}
}

func failed(code booking.Code, msg string) booking.Result {
	return booking.Result{Outcome: booking.OutcomeFailed, Message: msg, Code: code}
}

// resultFromError converts a strategy-internal error into a failed result,
// keeping the typed code when there is one.
func resultFromError(err error, prefix string) booking.Result {
	if be, ok := booking.AsError(err); ok {
		return failed(be.Code, prefix+": "+be.Message)
	}
	return failed(booking.CodeTransport, prefix+": "+err.Error())
}
