package normalize

import (
	"fmt"
	"strings"

	"github.com/kjannette/market-rates-backend/internal/models"
)

// Batch is the outcome of normalizing a raw batch. Records that failed are
// dropped and their errors kept in Failures, in input order.
type Batch[T any] struct {
	Records  []T
	Failures []error
}

// Dropped is the number of raw records that did not survive normalization.
func (b Batch[T]) Dropped() int { return len(b.Failures) }

func Gold(raw models.RawGoldRecord) (models.GoldRate, error) {
	name := strings.TrimSpace(raw.ProductName)
	if name == "" {
		return models.GoldRate{}, &MissingKeyError{Field: "product name"}
	}
	day, err := GoldDate(raw.CapturedAt)
	if err != nil {
		return models.GoldRate{}, err
	}
	buy, err := Amount("buy", raw.Buy)
	if err != nil {
		return models.GoldRate{}, err
	}
	sell, err := Amount("sell", raw.Sell)
	if err != nil {
		return models.GoldRate{}, err
	}
	return models.GoldRate{CaptureDate: day, ProductName: name, Buy: buy, Sell: sell}, nil
}

func Currency(raw models.RawCurrencyRecord) (models.CurrencyRate, error) {
	code := strings.ToUpper(strings.TrimSpace(raw.CurrencyCode))
	if code == "" {
		return models.CurrencyRate{}, &MissingKeyError{Field: "currency code"}
	}
	day, err := CurrencyDate(raw.CapturedAt)
	if err != nil {
		return models.CurrencyRate{}, err
	}
	buy, err := Amount("buy", raw.Buy)
	if err != nil {
		return models.CurrencyRate{}, err
	}
	transfer, err := Amount("transfer", raw.Transfer)
	if err != nil {
		return models.CurrencyRate{}, err
	}
	sell, err := Amount("sell", raw.Sell)
	if err != nil {
		return models.CurrencyRate{}, err
	}
	return models.CurrencyRate{
		CaptureDate:  day,
		CurrencyCode: code,
		CurrencyName: strings.TrimSpace(raw.CurrencyName),
		Buy:          buy,
		Transfer:     transfer,
		Sell:         sell,
	}, nil
}

// GoldBatch normalizes every record it can; one bad row never sinks the rest.
func GoldBatch(raws []models.RawGoldRecord) Batch[models.GoldRate] {
	out := Batch[models.GoldRate]{Records: make([]models.GoldRate, 0, len(raws))}
	for i, raw := range raws {
		rate, err := Gold(raw)
		if err != nil {
			out.Failures = append(out.Failures, fmt.Errorf("gold row %d (%q): %w", i+1, raw.ProductName, err))
			continue
		}
		out.Records = append(out.Records, rate)
	}
	return out
}

// CurrencyBatch normalizes every record it can; one bad entry never sinks the rest.
func CurrencyBatch(raws []models.RawCurrencyRecord) Batch[models.CurrencyRate] {
	out := Batch[models.CurrencyRate]{Records: make([]models.CurrencyRate, 0, len(raws))}
	for i, raw := range raws {
		rate, err := Currency(raw)
		if err != nil {
			out.Failures = append(out.Failures, fmt.Errorf("currency entry %d (%q): %w", i+1, raw.CurrencyCode, err))
			continue
		}
		out.Records = append(out.Records, rate)
	}
	return out
}
