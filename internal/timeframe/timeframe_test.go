package timeframe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fixed clock: Wednesday, 14 January 2026
var wednesday = time.Date(2026, 1, 14, 10, 30, 0, 0, time.Local)

func testParser() *Parser {
	return &Parser{Now: func() time.Time { return wednesday }}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParseDates(t *testing.T) {
	p := testParser()

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"explicit dotted", "7.1.2026 between 15:00 and 18:00", date(2026, time.January, 7)},
		{"explicit slashed", "21/01/2026 10-12", date(2026, time.January, 21)},
		{"explicit iso", "2026-02-03 at 18:00", date(2026, time.February, 3)},
		{"today", "today 9-11", date(2026, time.January, 14)},
		{"tomorrow", "tomorrow 10:00-12:00", date(2026, time.January, 15)},
		{"next week", "next week", date(2026, time.January, 21)},
		{"future weekday", "friday evening 18-20", date(2026, time.January, 16)},
		{"next weekday", "next monday 6-8pm", date(2026, time.January, 19)},
		{"short weekday", "sat morning", date(2026, time.January, 17)},
		{"no date defaults to today", "somewhere between 15:00 and 18:00", date(2026, time.January, 14)},
		{"garbage defaults to today", "asdf qwerty", date(2026, time.January, 14)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.in)
			require.Equal(t, tt.want, got.Date)
		})
	}
}

func TestParseWeekdayEqualToTodayRollsForwardFullWeek(t *testing.T) {
	p := testParser()
	got := p.Parse("wednesday 10-12")
	require.Equal(t, date(2026, time.January, 21), got.Date, "a weekday match must never resolve to today")
}

func TestParseTimeRanges(t *testing.T) {
	p := testParser()

	tests := []struct {
		name       string
		in         string
		start, end string
	}{
		{"at wraps midnight", "at 23:30", "23:30", "00:30"},
		{"at plain", "tomorrow at 10:00", "10:00", "11:00"},
		{"hhmm range", "15:00-18:00", "15:00", "18:00"},
		{"hh range pm", "6-8pm", "18:00", "20:00"},
		{"hh range noon pm", "12-2pm", "12:00", "14:00"},
		{"hh range plain", "9-11", "09:00", "11:00"},
		{"between", "between 15:00 and 18:00", "15:00", "18:00"},
		{"between bare hours", "between 9 and 11", "09:00", "11:00"},
		{"default window", "tomorrow", DefaultStart, DefaultEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.in)
			require.Equal(t, tt.start, got.StartTime)
			require.Equal(t, tt.end, got.EndTime)
		})
	}
}

func TestParseNormalizesMobilePunctuation(t *testing.T) {
	p := testParser()

	// en dash and narrow no-break space, as produced by phone keyboards
	got := p.Parse("tomorrow 15:00–18:00")
	require.Equal(t, "15:00", got.StartTime)
	require.Equal(t, "18:00", got.EndTime)

	got = p.Parse("friday between 9 and 11")
	require.Equal(t, date(2026, time.January, 16), got.Date)
	require.Equal(t, "09:00", got.StartTime)
}

func TestParseScenarioNextMondayEvening(t *testing.T) {
	p := testParser()
	got := p.Parse("next monday 6-8pm")
	require.Equal(t, date(2026, time.January, 19), got.Date)
	require.Equal(t, "18:00", got.StartTime)
	require.Equal(t, "20:00", got.EndTime)
}

func TestTimeframeStartEnd(t *testing.T) {
	tf := Timeframe{Date: date(2026, time.January, 19), StartTime: "18:00", EndTime: "20:30"}
	require.Equal(t, time.Date(2026, 1, 19, 18, 0, 0, 0, time.Local), tf.Start())
	require.Equal(t, time.Date(2026, 1, 19, 20, 30, 0, 0, time.Local), tf.End())
}
