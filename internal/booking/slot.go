package booking

import (
	"strconv"
	"strings"
)

// VenueKind tags a slot with the portal that produced it. It is resolved once
// from the display string when the slot is constructed, so downstream code
// dispatches on the tag instead of re-matching substrings at every call site.
type VenueKind string

const (
	VenueUnknown VenueKind = ""
	VenueArsenal VenueKind = "arsenal"
	VenuePostSV  VenueKind = "postsv"
)

// Canonical display names used by the portals.
const (
	VenueNameArsenal = "Tenniszentrum Arsenal (Das Spiel)"
	VenueNamePostSV  = "Post SV Wien"
)

// ResolveVenue maps a free-form venue string to its kind.
func ResolveVenue(venue string) VenueKind {
	v := strings.ToLower(venue)
	switch {
	case strings.Contains(v, "arsenal") || strings.Contains(v, "das spiel"):
		return VenueArsenal
	case strings.Contains(v, "post sv"):
		return VenuePostSV
	default:
		return VenueUnknown
	}
}

// Slot is one bookable (venue, date, time, court) offer. Slots are ephemeral:
// an adapter creates them per scrape and the capability tokens they carry
// (SquareID, BookingLink) are only valid for the session that discovered them.
type Slot struct {
	Venue     VenueKind `json:"-"`
	VenueName string    `json:"venue"`

	CourtName string `json:"court_name"`
	Date      string `json:"date"` // YYYY-MM-DD, venue-local
	Time      string `json:"time"` // HH:MM start, venue-local
	DayOfWeek string `json:"day_of_week"`

	DurationMin int    `json:"duration_min"`
	Price       string `json:"price"` // decimal string or "N/A", EUR implied

	CourtType     string `json:"court_type"`
	IndoorOutdoor string `json:"indoor_outdoor"`
	Location      string `json:"location"`

	// SquareID identifies the physical court resource at Arsenal for the
	// scraped date. Single use; do not reuse across sessions.
	SquareID string `json:"square_id,omitempty"`

	// BookingLink is the relative reservation URL captured from the Post SV
	// schedule table. Valid only for the session that produced it.
	BookingLink string `json:"booking_link,omitempty"`
}

// Key is the structural identity used for preference matching. Capability
// tokens are deliberately excluded.
func (s Slot) Key() string {
	return s.VenueName + "|" + s.Date + "|" + s.Time + "|" + s.CourtName
}

// TimeOfDayBucket classifies an HH:MM start into morning/afternoon/evening.
func TimeOfDayBucket(timeStr string) string {
	h, _, ok := strings.Cut(timeStr, ":")
	if !ok {
		return "unknown"
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return "unknown"
	}
	switch {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

// ParsePrice turns portal price strings ("26.00", "€ 26,00", "N/A") into a
// float. The second return is false when no numeric price is present.
func ParsePrice(price string) (float64, bool) {
	p := strings.TrimSpace(price)
	p = strings.TrimPrefix(p, "€")
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, ",", ".")
	if p == "" || strings.EqualFold(p, "n/a") {
		return 0, false
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// AddHour returns start+1h with the minute preserved, wrapping at midnight.
// Used for venues whose bookings are fixed one-hour blocks.
func AddHour(timeStr string) string {
	h, m, ok := strings.Cut(timeStr, ":")
	if !ok {
		return timeStr
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return timeStr
	}
	hour = (hour + 1) % 24
	return pad2(hour) + ":" + m
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
