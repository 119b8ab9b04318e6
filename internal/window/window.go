// Package window builds the monthly date windows a bulk import walks through.
package window

import (
	"iter"
	"time"

	"github.com/timmy/bulkimport/internal/domain"
)

// LabelLayout renders a window label such as "June 2025".
const LabelLayout = "January 2006"

// Monthly yields one window per calendar month from start's month through
// now's month, inclusive. The first window begins on start's day, later ones
// on day 1. Each window ends on the last day of its month, except the window
// containing now, which ends on now's day.
//
// The sequence is a pure function of its arguments and can be ranged over
// any number of times.
func Monthly(start, now time.Time) iter.Seq[domain.DateWindow] {
	return func(yield func(domain.DateWindow) bool) {
		loc := now.Location()
		first := dateOf(start, loc)
		today := dateOf(now, loc)
		if first.After(today) {
			return
		}

		cur := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, loc)
		for !cur.After(today) {
			year, month := cur.Year(), cur.Month()

			from := cur
			if year == first.Year() && month == first.Month() {
				from = first
			}

			to := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
			if year == today.Year() && month == today.Month() {
				to = today
			}

			w := domain.DateWindow{
				StartDate: from,
				EndDate:   to,
				Label:     cur.Format(LabelLayout),
				Year:      year,
				Month:     month,
			}
			if !yield(w) {
				return
			}
			cur = cur.AddDate(0, 1, 0)
		}
	}
}

// Generate materializes Monthly into a slice.
func Generate(start, now time.Time) []domain.DateWindow {
	var windows []domain.DateWindow
	for w := range Monthly(start, now) {
		windows = append(windows, w)
	}
	return windows
}

// ParseStart parses a YYYY-MM-DD start date in loc.
func ParseStart(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(domain.DateLayout, value, loc)
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
