package domain

import "time"

// DateLayout is the wire format for dates sent to the import endpoint.
const DateLayout = "2006-01-02"

// DateWindow is one calendar-month-bounded date range used to scope a single
// import request.
type DateWindow struct {
	StartDate time.Time
	EndDate   time.Time
	Label     string
	Year      int
	Month     time.Month
}

// StartString returns the window start as YYYY-MM-DD.
func (w DateWindow) StartString() string {
	return w.StartDate.Format(DateLayout)
}

// EndString returns the window end as YYYY-MM-DD.
func (w DateWindow) EndString() string {
	return w.EndDate.Format(DateLayout)
}
