// Package aggregate resamples stored rate series into daily, weekly and
// monthly buckets for display. All functions are pure and safe to call
// concurrently.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/market-rates-backend/internal/models"
	"github.com/kjannette/market-rates-backend/internal/normalize"
)

const (
	dailyLabelLayout = "02 Jan 2006"
	monthLabelLayout = "Jan 2006"
)

// Point is one stored row reduced to what aggregation needs.
// Transfer is nil for series that have no transfer rate (gold).
type Point struct {
	Date     time.Time
	Series   string
	Buy      decimal.Decimal
	Sell     decimal.Decimal
	Transfer *decimal.Decimal
}

// Bucket is one resampled period. Series is set when every member belongs to
// the same series.
type Bucket struct {
	Label       string           `json:"label"`
	PeriodStart time.Time        `json:"periodStart"`
	Series      string           `json:"series,omitempty"`
	Buy         decimal.Decimal  `json:"buy"`
	Sell        decimal.Decimal  `json:"sell"`
	Transfer    *decimal.Decimal `json:"transfer,omitempty"`
	Count       int              `json:"count"`
}

func FromGold(rates []models.GoldRate) []Point {
	out := make([]Point, len(rates))
	for i, g := range rates {
		out[i] = Point{Date: g.CaptureDate, Series: g.ProductName, Buy: g.Buy, Sell: g.Sell}
	}
	return out
}

func FromCurrency(rates []models.CurrencyRate) []Point {
	out := make([]Point, len(rates))
	for i, c := range rates {
		transfer := c.Transfer
		out[i] = Point{Date: c.CaptureDate, Series: c.CurrencyCode, Buy: c.Buy, Sell: c.Sell, Transfer: &transfer}
	}
	return out
}

// Aggregate resamples points at the requested granularity. Input order does
// not matter; points are sorted ascending by date (then series) first.
func Aggregate(points []Point, g models.Granularity) ([]Bucket, error) {
	sorted := ascending(points)

	switch g {
	case models.Daily, "":
		return daily(sorted), nil
	case models.Weekly:
		return resample(sorted, WeekStart, WeekLabel), nil
	case models.Monthly:
		return resample(sorted, monthStart, MonthLabel), nil
	}
	return nil, fmt.Errorf("unknown granularity %q", g)
}

func ascending(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Series < out[j].Series
	})
	return out
}

func daily(points []Point) []Bucket {
	out := make([]Bucket, 0, len(points))
	for _, p := range points {
		day := normalize.Day(p.Date)
		b := Bucket{
			Label:       day.Format(dailyLabelLayout),
			PeriodStart: day,
			Series:      p.Series,
			Buy:         p.Buy,
			Sell:        p.Sell,
			Count:       1,
		}
		if p.Transfer != nil {
			t := *p.Transfer
			b.Transfer = &t
		}
		out = append(out, b)
	}
	return out
}

// resample groups sorted points by the period start returned by key and
// averages each group. Periods with no points are not emitted.
func resample(points []Point, key func(time.Time) time.Time, label func(time.Time) string) []Bucket {
	var out []Bucket
	for i := 0; i < len(points); {
		start := key(points[i].Date)
		j := i
		for j < len(points) && key(points[j].Date).Equal(start) {
			j++
		}
		b := mean(points[i:j])
		b.PeriodStart = start
		b.Label = label(start)
		out = append(out, b)
		i = j
	}
	if out == nil {
		out = []Bucket{}
	}
	return out
}

func mean(group []Point) Bucket {
	var buy, sell, transfer accumulator
	hasTransfer := false
	series := group[0].Series

	for _, p := range group {
		buy.add(p.Buy)
		sell.add(p.Sell)
		if p.Transfer != nil {
			hasTransfer = true
			transfer.add(*p.Transfer)
		}
		if p.Series != series {
			series = ""
		}
	}

	b := Bucket{
		Series: series,
		Buy:    buy.mean(),
		Sell:   sell.mean(),
		Count:  len(group),
	}
	if hasTransfer {
		t := transfer.mean()
		b.Transfer = &t
	}
	return b
}

// accumulator averages quoted values only; unquoted members are ignored so
// the sentinel never drags a mean down.
type accumulator struct {
	sum decimal.Decimal
	n   int64
}

func (a *accumulator) add(d decimal.Decimal) {
	if normalize.IsUnquoted(d) {
		return
	}
	a.sum = a.sum.Add(d)
	a.n++
}

func (a *accumulator) mean() decimal.Decimal {
	if a.n == 0 {
		return normalize.Unquoted
	}
	return a.sum.Div(decimal.NewFromInt(a.n))
}
