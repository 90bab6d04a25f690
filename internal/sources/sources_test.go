package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/market-rates-backend/internal/logging"
	"github.com/kjannette/market-rates-backend/internal/models"
)

const goldPage = `<html><body>
<div class="header"><span class="update-time size-14">Cập nhật lúc 08:30 01/03/2024</span></div>
<div class="hn"><table><tr><td>HN</td><td>1</td><td>2</td></tr></table></div>
<div class="hcm">
  <table>
    <tr><th>Loại vàng</th><th>Mua vào</th><th>Bán ra</th></tr>
    <tr><td>Nữ trang 99.99</td><td>1000</td><td>1010</td></tr>
    <tr><td> Nữ trang 99.99 - Bán Lẻ </td><td>1005</td><td>1015</td></tr>
  </table>
</div>
</body></html>`

const currencyFeed = `<?xml version="1.0" encoding="utf-8"?>
<ExrateList>
  <DateTime>3/1/2024 8:30:00 AM</DateTime>
  <Exrate CurrencyCode="AUD" CurrencyName="AUSTRALIAN DOLLAR" Buy="15,710.12" Transfer="15,868.81" Sell="16,378.48" />
  <Exrate CurrencyCode="KWD" CurrencyName="KUWAITI DINAR" Buy="-" Transfer="80,123.45" Sell="83,250.10" />
  <Exrate CurrencyCode="USD" CurrencyName="US DOLLAR" Buy="24,580.00" Transfer="24,610.00" Sell="24,950.00" />
  <Source>Joint Stock Commercial Bank for Foreign Trade of Vietnam - Vietcombank</Source>
</ExrateList>`

func TestParseGoldHTML(t *testing.T) {
	records, skipped, err := ParseGoldHTML([]byte(goldPage), "hcm", "span.update-time")
	require.NoError(t, err)
	assert.Zero(t, skipped)

	assert.Equal(t, []models.RawGoldRecord{
		{CapturedAt: "01/03/2024", ProductName: "Nữ trang 99.99", Buy: "1000", Sell: "1010"},
		{CapturedAt: "01/03/2024", ProductName: "Nữ trang 99.99 - Bán Lẻ", Buy: "1005", Sell: "1015"},
	}, records)
}

func TestParseGoldHTML_SkipsShortRows(t *testing.T) {
	page := `<span class="update-time">02/03/2024</span>
<div class="hcm"><table>
<tr><td>Loại</td><td>Mua</td><td>Bán</td></tr>
<tr><td colspan="3">Vàng nữ trang</td></tr>
<tr><td>Nhẫn 99.99</td><td>6,850</td><td>6,950</td></tr>
</table></div>`

	records, skipped, err := ParseGoldHTML([]byte(page), "hcm", "span.update-time")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "6,850", records[0].Buy)
}

func TestParseGoldHTML_LayoutDrift(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no timestamp", `<div class="hcm"><table><tr><td>a</td></tr></table></div>`},
		{"timestamp without date", `<span class="update-time">hôm nay</span><div class="hcm"><table></table></div>`},
		{"no region", `<span class="update-time">01/03/2024</span><div class="hn"><table></table></div>`},
		{"no table", `<span class="update-time">01/03/2024</span><div class="hcm"><p>empty</p></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseGoldHTML([]byte(tt.page), "hcm", "span.update-time")
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "gold", parseErr.Source)
		})
	}
}

func TestParseCurrencyXML(t *testing.T) {
	records, err := ParseCurrencyXML([]byte(currencyFeed))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.RawCurrencyRecord{
		CapturedAt:   "3/1/2024 8:30:00 AM",
		CurrencyCode: "KWD",
		CurrencyName: "KUWAITI DINAR",
		Buy:          "-",
		Transfer:     "80,123.45",
		Sell:         "83,250.10",
	}, records[1])
}

func TestParseCurrencyXML_Errors(t *testing.T) {
	_, err := ParseCurrencyXML([]byte(`<ExrateList><Exrate CurrencyCode="USD"/></ExrateList>`))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Error(), "DateTime")

	_, err = ParseCurrencyXML([]byte(`<ExrateList><DateTime>`))
	require.ErrorAs(t, err, &parseErr)
}

func TestGoldSource_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(goldPage))
	}))
	defer srv.Close()

	src := NewGoldSource(srv.URL, GoldOptions{Options: Options{Timeout: 5 * time.Second, UserAgent: "rates-test"}}, logging.Discard())
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "rates-test", gotUA)
}

func TestCurrencySource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(currencyFeed))
	}))
	defer srv.Close()

	src := NewCurrencySource(srv.URL, Options{Timeout: 5 * time.Second}, logging.Discard())
	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFetch_NonSuccessIsNetworkError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewCurrencySource(srv.URL, Options{Timeout: 5 * time.Second}, logging.Discard())
	_, err := src.Fetch(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
	assert.Equal(t, 1, hits, "adapters must not retry")
}

func TestFetch_UnreachableIsNetworkError(t *testing.T) {
	src := NewGoldSource("http://127.0.0.1:1/gold", GoldOptions{Options: Options{Timeout: 2 * time.Second}}, logging.Discard())
	_, err := src.Fetch(context.Background())

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr), "got %v", err)
	assert.Zero(t, netErr.StatusCode)
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(goldPage))
	}))
	defer srv.Close()

	src := NewGoldSource(srv.URL, GoldOptions{Options: Options{Timeout: 50 * time.Millisecond}}, logging.Discard())
	_, err := src.Fetch(context.Background())

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}
