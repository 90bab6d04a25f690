package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/market-rates-backend/internal/models"
	"github.com/kjannette/market-rates-backend/internal/normalize"
)

func TestSummarize(t *testing.T) {
	rates := []models.CurrencyRate{
		{CaptureDate: day(2024, 3, 1), CurrencyCode: "USD", Buy: dec("24000"), Transfer: dec("24030"), Sell: dec("24400")},
		{CaptureDate: day(2024, 3, 3), CurrencyCode: "USD", Buy: dec("24150"), Transfer: dec("24180"), Sell: dec("24350")},
		{CaptureDate: day(2024, 3, 2), CurrencyCode: "USD", Buy: dec("24100"), Transfer: dec("24130"), Sell: dec("24500")},
	}

	s := Summarize(FromCurrency(rates))
	require.NotNil(t, s)

	assert.Equal(t, "USD", s.Series)
	assert.Equal(t, day(2024, 3, 3), s.Date)
	require.NotNil(t, s.PreviousDate)
	assert.Equal(t, day(2024, 3, 2), *s.PreviousDate)
	assert.True(t, s.BuyDelta.Equal(dec("50")))
	assert.True(t, s.SellDelta.Equal(dec("-150")))
	assert.True(t, s.TransferDelta.Equal(dec("50")))
}

func TestSummarize_SingleCapture(t *testing.T) {
	s := Summarize([]Point{pt(day(2024, 3, 1), "1", "2")})
	require.NotNil(t, s)
	assert.Nil(t, s.PreviousDate)
	assert.Nil(t, s.BuyDelta)
	assert.Nil(t, s.SellDelta)
}

func TestSummarize_UnquotedHasNoDelta(t *testing.T) {
	points := []Point{
		{Date: day(2024, 3, 2), Buy: normalize.Unquoted, Sell: dec("10")},
		{Date: day(2024, 3, 1), Buy: dec("5"), Sell: dec("8")},
	}
	s := Summarize(points)
	require.NotNil(t, s)
	assert.Nil(t, s.BuyDelta)
	assert.True(t, s.SellDelta.Equal(dec("2")))
}

func TestSummarize_Empty(t *testing.T) {
	assert.Nil(t, Summarize(nil))
}
