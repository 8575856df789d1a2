package bookexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/creds"
)

const browserTimeout = 90 * time.Second

// ArsenalBrowser drives a headless Chrome through the Arsenal booking flow.
// It is the fallback for transient API failures: slower and more fragile,
// but it exercises the same path a user would, which survives portal-side
// changes to the reservation endpoint.
type ArsenalBrowser struct {
	base   string
	creds  *creds.Store
	logger *slog.Logger
}

func NewArsenalBrowser(base string, credStore *creds.Store, logger *slog.Logger) *ArsenalBrowser {
	return &ArsenalBrowser{base: strings.TrimRight(base, "/"), creds: credStore, logger: logger}
}

func (s *ArsenalBrowser) Name() string { return "arsenal-browser" }

func (s *ArsenalBrowser) Attempt(ctx context.Context, slot booking.Slot) booking.Result {
	c, ok := s.creds.Get(booking.VenueArsenal)
	if !ok {
		return failed(booking.CodeNoCredentials, "No credentials found for Tenniszentrum Arsenal")
	}
	if slot.SquareID == "" {
		return failed(booking.CodeMissingToken, "Slot has no court id; re-run the search and book from a fresh result")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1400, 1000),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, browserTimeout)
	defer cancelTimeout()

	var page string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(s.base+"/signin"),
		chromedp.WaitVisible(`input[type="email"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="email"]`, c.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[type="password"]`, c.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		// The portal renders the calendar client-side after each
		// navigation; fixed waits are the only reliable sync point.
		chromedp.Sleep(2*time.Second),

		chromedp.Navigate(fmt.Sprintf("%s/?date=%s", s.base, slot.Date)),
		chromedp.Sleep(2*time.Second),

		chromedp.Click(s.slotSelector(slot), chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.Click(`//button[contains(., "mieten")]`),
		chromedp.Sleep(1*time.Second),

		// The rent dialog has consent checkboxes (terms, house rules)
		// that must all be ticked before the confirm button activates.
		chromedp.Evaluate(`document.querySelectorAll('input[type="checkbox"]').forEach(cb => { if (!cb.checked) cb.click(); })`, nil),
		chromedp.Click(`//button[contains(., "verbindlich")]`),
		chromedp.Sleep(2*time.Second),

		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return failed(booking.CodeTransport, fmt.Sprintf("Browser booking failed: %v", err))
	}

	return s.interpret(page, slot)
}

func (s *ArsenalBrowser) slotSelector(slot booking.Slot) string {
	return fmt.Sprintf(`[data-square-id="%s"][data-time="%s"]`, slot.SquareID, slot.Time)
}

// interpret inspects the calendar page after the confirm click. A slot owned
// by the signed-in account is rendered with an own-booking marker; an error
// banner means the portal rejected the reservation. Anything else is treated
// as submitted but unconfirmed.
func (s *ArsenalBrowser) interpret(page string, slot booking.Slot) booking.Result {
	lower := strings.ToLower(page)
	switch {
	case strings.Contains(lower, "own-booking") || strings.Contains(lower, "erfolgreich"):
		return booking.Result{
			Outcome: booking.OutcomeSuccess,
			Message: fmt.Sprintf("Successfully booked %s on %s at %s", slot.CourtName, slot.Date, slot.Time),
		}
	case strings.Contains(lower, "alert-danger") || strings.Contains(lower, "fehler"):
		return failed(booking.CodeValidation, "Booking failed - the portal showed an error after confirming")
	default:
		return booking.Result{
			Outcome: booking.OutcomeUnverified,
			Message: fmt.Sprintf("Booking submitted for %s on %s at %s", slot.CourtName, slot.Date, slot.Time),
		}
	}
}
