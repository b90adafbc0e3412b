package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func testHistory() History {
	return History{
		{Date: day(0), Open: 100, High: 105, Low: 99, Close: 102, Volume: 1000},
		{Date: day(1), Open: 102, High: 107, Low: 101, Close: 105, Volume: 1100},
		{Date: day(2), Open: 105, High: 108, Low: 104, Close: 106, Volume: 900},
	}
}

func TestHistoryValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, testHistory().Validate())
	})

	t.Run("empty", func(t *testing.T) {
		assert.Error(t, History{}.Validate())
	})

	t.Run("missing date", func(t *testing.T) {
		h := testHistory()
		h[1].Date = time.Time{}
		assert.Error(t, h.Validate())
	})

	t.Run("non-positive price", func(t *testing.T) {
		h := testHistory()
		h[2].Close = 0
		assert.Error(t, h.Validate())
	})

	t.Run("high below low", func(t *testing.T) {
		h := testHistory()
		h[0].High = 90
		assert.Error(t, h.Validate())
	})

	t.Run("duplicate date", func(t *testing.T) {
		h := testHistory()
		h[1].Date = h[0].Date
		assert.Error(t, h.Validate())
	})

	t.Run("out of order", func(t *testing.T) {
		h := testHistory()
		h[2].Date = day(-1)
		assert.Error(t, h.Validate())
	})
}

func TestHistorySeries(t *testing.T) {
	h := testHistory()

	assert.Equal(t, []float64{102, 105, 106}, h.Closes())
	assert.Equal(t, []float64{105, 107, 108}, h.Highs())
	assert.Equal(t, []float64{99, 101, 104}, h.Lows())

	assert.Equal(t, 102.0, h.First().Close)
	assert.Equal(t, 106.0, h.Last().Close)
}
