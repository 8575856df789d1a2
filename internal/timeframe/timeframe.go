// Package timeframe turns free-text timeframe expressions ("next monday
// 6-8pm", "tomorrow between 15:00 and 18:00") into a concrete date and time
// window. Inputs come from chat / mobile keyboards, so the parser never fails:
// anything unrecognized falls back to today, 09:00-21:00.
package timeframe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultStart = "09:00"
	DefaultEnd   = "21:00"
)

// Timeframe is a date plus an HH:MM window, venue-local. Transient: produced
// fresh per query, never persisted.
type Timeframe struct {
	Date      time.Time
	StartTime string
	EndTime   string
}

// Parser resolves relative dates against Now, which defaults to time.Now and
// is injectable for tests.
type Parser struct {
	Now func() time.Time
}

func New() *Parser {
	return &Parser{Now: time.Now}
}

var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday}, {"mon", time.Monday},
	{"tuesday", time.Tuesday}, {"tue", time.Tuesday},
	{"wednesday", time.Wednesday}, {"wed", time.Wednesday},
	{"thursday", time.Thursday}, {"thu", time.Thursday},
	{"friday", time.Friday}, {"fri", time.Friday},
	{"saturday", time.Saturday}, {"sat", time.Saturday},
	{"sunday", time.Sunday}, {"sun", time.Sunday},
}

var (
	reDateDMY    = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})[./](\d{4})`)
	reDateISO    = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	reAtTime     = regexp.MustCompile(`\bat\s+(\d{1,2}):(\d{2})`)
	reRangeHHMM  = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})`)
	reRangeHH    = regexp.MustCompile(`(\d{1,2})\s*-\s*(\d{1,2})\s*(pm|am)?`)
	reRangeAMPM  = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(pm|am)?\s*-\s*(\d{1,2}):(\d{2})\s*(pm|am)?`)
	reBetween    = regexp.MustCompile(`between\s+(\d{1,2}):?(\d{2})?\s+and\s+(\d{1,2}):?(\d{2})?`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

var punctuation = strings.NewReplacer(
	"“", `"`, "”", `"`, // curly double quotes
	"‘", "'", "’", "'", // curly single quotes
	"„", `"`, // German low quote
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	" ", " ", // non-breaking space
	" ", " ", // narrow no-break space
)

// Parse extracts a Timeframe from free text. It never returns an error: a
// missing date means today, a missing time range means 09:00-21:00.
func (p *Parser) Parse(text string) Timeframe {
	text = strings.ToLower(strings.TrimSpace(text))
	text = punctuation.Replace(text)
	text = reWhitespace.ReplaceAllString(text, " ")

	date := p.extractDate(text)
	start, end := extractTimeRange(text)

	return Timeframe{Date: date, StartTime: start, EndTime: end}
}

func (p *Parser) today() time.Time {
	now := p.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (p *Parser) extractDate(text string) time.Time {
	// Explicit literals win over relative words.
	if m := reDateDMY.FindStringSubmatch(text); m != nil {
		if d, ok := makeDate(m[3], m[2], m[1]); ok {
			return d
		}
	}
	if m := reDateISO.FindStringSubmatch(text); m != nil {
		if d, ok := makeDate(m[1], m[2], m[3]); ok {
			return d
		}
	}

	today := p.today()
	switch {
	case strings.Contains(text, "today"):
		return today
	case strings.Contains(text, "tomorrow"):
		return today.AddDate(0, 0, 1)
	case strings.Contains(text, "next week"):
		return today.AddDate(0, 0, 7)
	}

	// A bare weekday name means the next future occurrence of that weekday.
	// If it equals today's weekday, roll a full week: "monday" said on a
	// Monday never means today.
	for _, wd := range weekdays {
		if strings.Contains(text, wd.name) {
			ahead := int(wd.day-today.Weekday()+7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return today.AddDate(0, 0, ahead)
		}
	}

	return today
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.Local)
	// reject rollover like 31.02.
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

// extractTimeRange tries the time patterns in fixed priority order; the first
// match wins, with no disambiguation beyond order.
func extractTimeRange(text string) (string, string) {
	// "at HH:MM" is a one-hour window, wrapping at midnight.
	if m := reAtTime.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		start := fmt.Sprintf("%02d:%s", hour, m[2])
		end := fmt.Sprintf("%02d:%s", (hour+1)%24, m[2])
		return start, end
	}

	if m := reRangeHHMM.FindStringSubmatch(text); m != nil {
		sh, _ := strconv.Atoi(m[1])
		sm, _ := strconv.Atoi(m[2])
		eh, _ := strconv.Atoi(m[3])
		em, _ := strconv.Atoi(m[4])
		return fmt.Sprintf("%02d:%02d", sh, sm), fmt.Sprintf("%02d:%02d", eh, em)
	}

	if m := reRangeHH.FindStringSubmatch(text); m != nil {
		sh, _ := strconv.Atoi(m[1])
		eh, _ := strconv.Atoi(m[2])
		if m[3] == "pm" {
			if sh != 12 {
				sh += 12
			}
			if eh != 12 {
				eh += 12
			}
		}
		return fmt.Sprintf("%02d:00", sh), fmt.Sprintf("%02d:00", eh)
	}

	if m := reRangeAMPM.FindStringSubmatch(text); m != nil {
		sh, _ := strconv.Atoi(m[1])
		eh, _ := strconv.Atoi(m[4])
		if m[3] == "pm" && sh != 12 {
			sh += 12
		}
		if m[6] == "pm" && eh != 12 {
			eh += 12
		}
		return fmt.Sprintf("%02d:%s", sh, m[2]), fmt.Sprintf("%02d:%s", eh, m[5])
	}

	if m := reBetween.FindStringSubmatch(text); m != nil {
		sh, _ := strconv.Atoi(m[1])
		eh, _ := strconv.Atoi(m[3])
		sm := m[2]
		if sm == "" {
			sm = "00"
		}
		em := m[4]
		if em == "" {
			em = "00"
		}
		return fmt.Sprintf("%02d:%s", sh, sm), fmt.Sprintf("%02d:%s", eh, em)
	}

	return DefaultStart, DefaultEnd
}

// Start combines the timeframe's date with its start time.
func (tf Timeframe) Start() time.Time {
	return at(tf.Date, tf.StartTime)
}

// End combines the timeframe's date with its end time.
func (tf Timeframe) End() time.Time {
	return at(tf.Date, tf.EndTime)
}

func at(date time.Time, hhmm string) time.Time {
	var h, m int
	fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location())
}
