// Package bookexec executes bookings. Each venue gets an ordered list of
// strategies (fast API path first, browser automation last); the executor
// walks the list while failures stay retryable, writes exactly one audit
// record per Book call, and feeds confirmed bookings back into the
// preference engine.
package bookexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/config"
	"github.com/example/court-scheduler/internal/creds"
	"github.com/example/court-scheduler/internal/history"
	"github.com/example/court-scheduler/internal/preference"
)

// Strategy is one way of submitting a reservation for a slot.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, slot booking.Slot) booking.Result
}

type Executor struct {
	attempts   history.AttemptStore
	prefs      *preference.Engine
	logger     *slog.Logger
	strategies map[booking.VenueKind][]Strategy
}

// New wires the venue strategies from config: Arsenal gets the API path plus
// the browser fallback (unless disabled), Post SV only has the form path.
func New(cfg config.Config, credStore *creds.Store, attempts history.AttemptStore, prefs *preference.Engine, logger *slog.Logger) *Executor {
	arsenalStrategies := []Strategy{
		NewArsenalAPI(cfg.ArsenalBaseURL, credStore, cfg.HTTPTimeout, logger),
	}
	if cfg.BrowserFallback {
		arsenalStrategies = append(arsenalStrategies,
			NewArsenalBrowser(cfg.ArsenalBaseURL, credStore, logger))
	}
	return &Executor{
		attempts: attempts,
		prefs:    prefs,
		logger:   logger,
		strategies: map[booking.VenueKind][]Strategy{
			booking.VenueArsenal: arsenalStrategies,
			booking.VenuePostSV: {
				NewPostSVForm(cfg.PostSVBaseURL, credStore, cfg.HTTPTimeout, logger),
			},
		},
	}
}

// NewWithStrategies builds an executor with explicit strategy lists, used by
// tests.
func NewWithStrategies(attempts history.AttemptStore, prefs *preference.Engine, logger *slog.Logger, strategies map[booking.VenueKind][]Strategy) *Executor {
	return &Executor{attempts: attempts, prefs: prefs, logger: logger, strategies: strategies}
}

// Book runs the booking state machine for a slot and always returns a
// user-presentable message; no error escapes. Exactly one attempt record is
// appended regardless of outcome.
func (e *Executor) Book(ctx context.Context, slot booking.Slot) (bool, string) {
	kind := slot.Venue
	if kind == booking.VenueUnknown {
		kind = booking.ResolveVenue(slot.VenueName)
	}

	strategies, ok := e.strategies[kind]
	if !ok || len(strategies) == 0 {
		msg := fmt.Sprintf("Unknown venue: %s", slot.VenueName)
		e.record(slot, booking.Result{Outcome: booking.OutcomeFailed, Message: msg, Code: booking.CodeUnknownVenue})
		return false, msg
	}

	var res booking.Result
	for i, s := range strategies {
		res = s.Attempt(ctx, slot)
		e.logger.Info("booking strategy finished",
			"strategy", s.Name(), "venue", kind,
			"outcome", res.Outcome.String(), "code", res.Code, "msg", res.Message)

		if res.Outcome != booking.OutcomeFailed {
			break
		}
		if !res.Code.Retryable() || i == len(strategies)-1 {
			break
		}
		e.logger.Info("falling back to next strategy", "after", s.Name(), "code", res.Code)
	}

	e.record(slot, res)

	switch res.Outcome {
	case booking.OutcomeSuccess:
		e.logSelection(slot)
		return true, res.Message
	case booking.OutcomeUnverified:
		// No failure was detected but the portal gave no positive
		// confirmation either; the caller should verify on the site.
		e.logSelection(slot)
		return true, res.Message + " (not confirmed by the portal - please verify your reservation)"
	default:
		return false, res.Message
	}
}

func (e *Executor) record(slot booking.Slot, res booking.Result) {
	a := history.Attempt{
		Timestamp: time.Now(),
		Slot:      slot,
	}
	switch res.Outcome {
	case booking.OutcomeSuccess, booking.OutcomeUnverified:
		a.Status = "success"
		if res.Outcome == booking.OutcomeUnverified {
			a.Error = "unverified: " + res.Message
		}
	default:
		if res.Code == booking.CodeTransport {
			a.Status = "error"
		} else {
			a.Status = "failed"
		}
		a.Error = res.Message
	}
	if err := e.attempts.AppendAttempt(a); err != nil {
		e.logger.Warn("persist booking attempt", "err", err)
	}
}

func (e *Executor) logSelection(slot booking.Slot) {
	if e.prefs == nil {
		return
	}
	if err := e.prefs.LogSelection(slot); err != nil {
		e.logger.Warn("record selection after booking", "err", err)
	}
}
