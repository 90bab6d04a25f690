package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-rates-backend/internal/models"
)

const (
	goldSource = "gold"

	defaultTimestampSelector = "span.update-time"
	defaultRegion            = "hcm"
)

var goldDatePattern = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)

type GoldOptions struct {
	Options
	// Region is the class of the container holding the regional price table.
	Region string
	// TimestampSelector locates the "last updated" element.
	TimestampSelector string
}

// GoldSource scrapes the regional gold price table from an HTML page.
type GoldSource struct {
	url    string
	opts   GoldOptions
	client *resty.Client
	logger *logrus.Entry
}

func NewGoldSource(url string, opts GoldOptions, logger *logrus.Logger) *GoldSource {
	if opts.Region == "" {
		opts.Region = defaultRegion
	}
	if opts.TimestampSelector == "" {
		opts.TimestampSelector = defaultTimestampSelector
	}
	return &GoldSource{
		url:    url,
		opts:   opts,
		client: newClient(opts.Options),
		logger: logger.WithField("source", goldSource),
	}
}

func (s *GoldSource) Name() string { return goldSource }

// Fetch downloads the page and returns one raw record per data row.
func (s *GoldSource) Fetch(ctx context.Context) ([]models.RawGoldRecord, error) {
	body, err := fetch(ctx, s.client, goldSource, s.url, "text/html")
	if err != nil {
		return nil, err
	}

	records, skipped, err := ParseGoldHTML(body, s.opts.Region, s.opts.TimestampSelector)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"rows":         len(records),
		"skipped_rows": skipped,
	}).Debug("Parsed gold table")
	return records, nil
}

// ParseGoldHTML extracts the capture date and the rows of the regional table.
// The first row is the header. Rows with fewer than three cells are skipped
// and counted.
func ParseGoldHTML(body []byte, region, timestampSelector string) ([]models.RawGoldRecord, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, &ParseError{Source: goldSource, Reason: "read html", Err: err}
	}

	stamp := doc.Find(timestampSelector).First()
	if stamp.Length() == 0 {
		return nil, 0, &ParseError{Source: goldSource, Reason: fmt.Sprintf("timestamp element %q not found", timestampSelector)}
	}
	capturedAt := goldDatePattern.FindString(stamp.Text())
	if capturedAt == "" {
		return nil, 0, &ParseError{Source: goldSource, Reason: fmt.Sprintf("no DD/MM/YYYY date in timestamp %q", strings.TrimSpace(stamp.Text()))}
	}

	container := doc.Find("div." + region).First()
	if container.Length() == 0 {
		return nil, 0, &ParseError{Source: goldSource, Reason: fmt.Sprintf("region container div.%s not found", region)}
	}
	table := container.Find("table").First()
	if table.Length() == 0 {
		return nil, 0, &ParseError{Source: goldSource, Reason: fmt.Sprintf("price table not found in div.%s", region)}
	}

	var (
		records []models.RawGoldRecord
		skipped int
	)
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			skipped++
			return
		}
		records = append(records, models.RawGoldRecord{
			CapturedAt:  capturedAt,
			ProductName: cellText(cells.Eq(0)),
			Buy:         cellText(cells.Eq(1)),
			Sell:        cellText(cells.Eq(2)),
		})
	})

	return records, skipped, nil
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
