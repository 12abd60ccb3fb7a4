package aggregator

import (
	"strings"
	"time"
)

// DateLayout is the day format used for window dates and prefix matching.
const DateLayout = "2006-01-02"

// Window is the set of calendar days tracked individually.
type Window struct {
	// Today is the current day.
	Today string

	// Dates lists the window in chronological order; the last element is Today.
	Dates []string
}

// NewWindow returns the window of the given number of days ending on the
// calendar day of now, in now's location. Days below one are treated as one.
func NewWindow(now time.Time, days int) Window {
	if days < 1 {
		days = 1
	}

	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	dates := make([]string, days)
	for i := 0; i < days; i++ {
		dates[days-1-i] = midnight.AddDate(0, 0, -i).Format(DateLayout)
	}

	return Window{
		Today: dates[days-1],
		Dates: dates,
	}
}

// Match returns the index in Dates of the day timestamp falls on, or -1.
func (w Window) Match(timestamp string) int {
	for i, date := range w.Dates {
		if OnDay(timestamp, date) {
			return i
		}
	}
	return -1
}

// OnDay reports whether timestamp's leading date equals day.
func OnDay(timestamp, day string) bool {
	return day != "" && strings.HasPrefix(timestamp, day)
}
