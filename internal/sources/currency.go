package sources

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-rates-backend/internal/models"
)

const currencySource = "currency"

type exrateList struct {
	DateTime *string  `xml:"DateTime"`
	Exrates  []exrate `xml:"Exrate"`
}

type exrate struct {
	CurrencyCode string `xml:"CurrencyCode,attr"`
	CurrencyName string `xml:"CurrencyName,attr"`
	Buy          string `xml:"Buy,attr"`
	Transfer     string `xml:"Transfer,attr"`
	Sell         string `xml:"Sell,attr"`
}

// CurrencySource reads the exchange-rate XML feed.
type CurrencySource struct {
	url    string
	client *resty.Client
	logger *logrus.Entry
}

func NewCurrencySource(url string, opts Options, logger *logrus.Logger) *CurrencySource {
	return &CurrencySource{
		url:    url,
		client: newClient(opts),
		logger: logger.WithField("source", currencySource),
	}
}

func (s *CurrencySource) Name() string { return currencySource }

// Fetch downloads the feed and returns one raw record per Exrate entry.
func (s *CurrencySource) Fetch(ctx context.Context) ([]models.RawCurrencyRecord, error) {
	body, err := fetch(ctx, s.client, currencySource, s.url, "application/xml")
	if err != nil {
		return nil, err
	}

	records, err := ParseCurrencyXML(body)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("entries", len(records)).Debug("Parsed currency feed")
	return records, nil
}

// ParseCurrencyXML reads the document timestamp and every Exrate entry.
// Attribute values are returned untouched; normalization happens later.
func ParseCurrencyXML(body []byte) ([]models.RawCurrencyRecord, error) {
	var doc exrateList
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Source: currencySource, Reason: "decode xml", Err: err}
	}
	if doc.DateTime == nil || strings.TrimSpace(*doc.DateTime) == "" {
		return nil, &ParseError{Source: currencySource, Reason: "DateTime element missing"}
	}
	capturedAt := strings.TrimSpace(*doc.DateTime)

	records := make([]models.RawCurrencyRecord, 0, len(doc.Exrates))
	for _, e := range doc.Exrates {
		records = append(records, models.RawCurrencyRecord{
			CapturedAt:   capturedAt,
			CurrencyCode: e.CurrencyCode,
			CurrencyName: e.CurrencyName,
			Buy:          e.Buy,
			Transfer:     e.Transfer,
			Sell:         e.Sell,
		})
	}
	return records, nil
}
