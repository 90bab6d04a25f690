package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical capture-date form.
const DateLayout = "2006-01-02"

// GoldRate is one product's quote for a capture date.
// Natural key: (CaptureDate, ProductName).
type GoldRate struct {
	CaptureDate time.Time       `json:"captureDate"`
	ProductName string          `json:"productName"`
	Buy         decimal.Decimal `json:"buy"`
	Sell        decimal.Decimal `json:"sell"`
}

// CurrencyRate is one currency's quote for a capture date.
// Natural key: (CaptureDate, CurrencyCode).
type CurrencyRate struct {
	CaptureDate  time.Time       `json:"captureDate"`
	CurrencyCode string          `json:"currencyCode"`
	CurrencyName string          `json:"currencyName"`
	Buy          decimal.Decimal `json:"buy"`
	Transfer     decimal.Decimal `json:"transfer"`
	Sell         decimal.Decimal `json:"sell"`
}

// RawGoldRecord is a gold table row exactly as scraped.
type RawGoldRecord struct {
	CapturedAt  string // DD/MM/YYYY
	ProductName string
	Buy         string
	Sell        string
}

// RawCurrencyRecord is an exchange-rate entry exactly as published.
type RawCurrencyRecord struct {
	CapturedAt   string // MM/DD/YYYY HH:MM:SS AM/PM
	CurrencyCode string
	CurrencyName string
	Buy          string
	Transfer     string
	Sell         string
}
