package aggregate

import (
	"fmt"
	"time"

	"github.com/kjannette/market-rates-backend/internal/normalize"
)

// WeekStart returns the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	day := normalize.Day(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	return monthStart(t).AddDate(0, 1, -1)
}

func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// WeekOfMonth is the ISO week of anchor minus the ISO week of the first of
// its month, plus one. Near year boundaries the ISO week numbers wrap, so the
// result can be zero or negative (e.g. a January whose 1st falls in ISO
// week 52/53 of the previous year).
func WeekOfMonth(anchor time.Time) int {
	_, week := anchor.ISOWeek()
	_, firstWeek := monthStart(anchor).ISOWeek()
	return week - firstWeek + 1
}

// WeekLabel renders "Week <n>/<Mon YYYY>" for a weekly bucket anchor.
func WeekLabel(anchor time.Time) string {
	return fmt.Sprintf("Week %d/%s", WeekOfMonth(anchor), anchor.Format(monthLabelLayout))
}

// MonthLabel renders "Mon YYYY".
func MonthLabel(t time.Time) string {
	return t.Format(monthLabelLayout)
}
