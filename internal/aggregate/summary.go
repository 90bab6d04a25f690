package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/market-rates-backend/internal/normalize"
)

// Summary is the latest capture of a single series and its change from the
// capture before it. Deltas are nil when there is no previous capture or when
// either side is unquoted.
type Summary struct {
	Series        string           `json:"series"`
	Date          time.Time        `json:"date"`
	Buy           decimal.Decimal  `json:"buy"`
	Sell          decimal.Decimal  `json:"sell"`
	Transfer      *decimal.Decimal `json:"transfer,omitempty"`
	PreviousDate  *time.Time       `json:"previousDate,omitempty"`
	BuyDelta      *decimal.Decimal `json:"buyDelta,omitempty"`
	SellDelta     *decimal.Decimal `json:"sellDelta,omitempty"`
	TransferDelta *decimal.Decimal `json:"transferDelta,omitempty"`
}

// Summarize returns nil for an empty series. Points are expected to belong
// to one series; order does not matter.
func Summarize(points []Point) *Summary {
	if len(points) == 0 {
		return nil
	}
	sorted := ascending(points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	latest := sorted[0]
	s := &Summary{
		Series: latest.Series,
		Date:   normalize.Day(latest.Date),
		Buy:    latest.Buy,
		Sell:   latest.Sell,
	}
	if latest.Transfer != nil {
		t := *latest.Transfer
		s.Transfer = &t
	}
	if len(sorted) < 2 {
		return s
	}

	prev := sorted[1]
	prevDate := normalize.Day(prev.Date)
	s.PreviousDate = &prevDate
	s.BuyDelta = delta(latest.Buy, prev.Buy)
	s.SellDelta = delta(latest.Sell, prev.Sell)
	if latest.Transfer != nil && prev.Transfer != nil {
		s.TransferDelta = delta(*latest.Transfer, *prev.Transfer)
	}
	return s
}

func delta(cur, prev decimal.Decimal) *decimal.Decimal {
	if normalize.IsUnquoted(cur) || normalize.IsUnquoted(prev) {
		return nil
	}
	d := cur.Sub(prev)
	return &d
}
