// Package normalize converts source-specific date and number encodings into
// canonical values. Everything here is pure: no I/O, no shared state.
package normalize

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// GoldDateLayout accepts DD/MM/YYYY (leading zeros optional).
	GoldDateLayout = "2/1/2006"
	// CurrencyDateLayout accepts MM/DD/YYYY HH:MM:SS AM/PM.
	CurrencyDateLayout = "1/2/2006 3:04:05 PM"

	// UnquotedMarker is what the feeds publish for "no quote".
	UnquotedMarker = "-"
)

// Unquoted is the out-of-band amount stored for a field the source did not quote.
// Real quotes are never negative, so -1 stays distinguishable from every price and from zero.
var Unquoted = decimal.NewFromInt(-1)

var errEmpty = errors.New("empty value")

// IsUnquoted reports whether d is the unquoted sentinel.
func IsUnquoted(d decimal.Decimal) bool {
	return d.Equal(Unquoted)
}

// GoldDate parses a gold capture date (DD/MM/YYYY).
func GoldDate(s string) (time.Time, error) {
	return parseDate(s, GoldDateLayout, "DD/MM/YYYY")
}

// CurrencyDate parses a currency feed timestamp and keeps only the calendar date.
func CurrencyDate(s string) (time.Time, error) {
	return parseDate(s, CurrencyDateLayout, "MM/DD/YYYY HH:MM:SS AM/PM")
}

func parseDate(s, layout, human string) (time.Time, error) {
	v := strings.TrimSpace(s)
	t, err := time.Parse(layout, v)
	if err != nil {
		return time.Time{}, &MalformedDateError{Value: s, Layout: human, Err: err}
	}
	return Day(t), nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the canonical YYYY-MM-DD form.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Amount parses a quoted amount. Thousands separators (",") and surrounding
// whitespace are stripped; the "-" marker maps to Unquoted.
func Amount(field, s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if v == UnquotedMarker {
		return Unquoted, nil
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ReplaceAll(v, " ", "")
	if v == "" {
		return decimal.Zero, &MalformedNumberError{Field: field, Value: s, Err: errEmpty}
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, &MalformedNumberError{Field: field, Value: s, Err: err}
	}
	return d, nil
}
