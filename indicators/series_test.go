package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rising(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func firstDefined(s []float64) int {
	for i, v := range s {
		if Defined(v) {
			return i
		}
	}
	return -1
}

func TestSMA(t *testing.T) {
	sma := SMA(rising(10), 3)

	assert.False(t, Defined(sma[0]))
	assert.False(t, Defined(sma[1]))
	// (1+2+3)/3 = 2
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	// (8+9+10)/3 = 9
	assert.InDelta(t, 9.0, sma[9], 1e-9)
}

func TestSMAShortInput(t *testing.T) {
	sma := SMA(rising(2), 5)
	assert.Equal(t, -1, firstDefined(sma))
}

func TestEMA(t *testing.T) {
	ema := EMA(rising(5), 3)

	assert.Equal(t, 2, firstDefined(ema))
	// Seed: SMA of first 3 = 2. Multiplier 0.5.
	assert.InDelta(t, 2.0, ema[2], 1e-9)
	assert.InDelta(t, 3.0, ema[3], 1e-9) // (4-2)*0.5+2
	assert.InDelta(t, 4.0, ema[4], 1e-9) // (5-3)*0.5+3
}

func TestRSI(t *testing.T) {
	t.Run("rising closes saturate at 100", func(t *testing.T) {
		rsi := RSI(rising(30), 14)
		assert.Equal(t, 14, firstDefined(rsi))
		for i := 14; i < 30; i++ {
			assert.InDelta(t, 100.0, rsi[i], 1e-9)
		}
	})

	t.Run("falling closes pin at 0", func(t *testing.T) {
		vals := make([]float64, 30)
		for i := range vals {
			vals[i] = float64(100 - i)
		}
		rsi := RSI(vals, 14)
		for i := 14; i < 30; i++ {
			assert.InDelta(t, 0.0, rsi[i], 1e-9)
		}
	})

	t.Run("bounded", func(t *testing.T) {
		vals := []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17, 16, 18, 17, 19, 18}
		rsi := RSI(vals, 14)
		for i := 14; i < len(vals); i++ {
			assert.GreaterOrEqual(t, rsi[i], 0.0)
			assert.LessOrEqual(t, rsi[i], 100.0)
		}
	})
}

func TestMACD(t *testing.T) {
	macd, signal := MACD(constant(40, 5), 12, 26, 9)

	// Flat input: both EMAs equal, MACD and signal sit at zero once defined.
	assert.False(t, Defined(macd[24]))
	assert.Equal(t, 25, firstDefined(macd)) // slow-1
	assert.InDelta(t, 0.0, macd[25], 1e-9)

	assert.False(t, Defined(signal[32]))
	assert.Equal(t, 33, firstDefined(signal)) // slow+signal-2
	assert.InDelta(t, 0.0, signal[33], 1e-9)
}

func TestStochastic(t *testing.T) {
	highs := constant(10, 100)
	lows := constant(10, 100)
	closes := constant(10, 100)

	k, d := Stochastic(highs, lows, closes, 5)

	// Degenerate range reads as mid-scale.
	assert.Equal(t, 4, firstDefined(k))
	for i := 4; i < 10; i++ {
		assert.InDelta(t, 50.0, k[i], 1e-9)
		assert.InDelta(t, 50.0, d[i], 1e-9)
	}
}

func TestBollinger(t *testing.T) {
	t.Run("flat input collapses the bands", func(t *testing.T) {
		upper, lower := Bollinger(constant(10, 42), 5, 2)
		assert.Equal(t, 4, firstDefined(upper))
		assert.InDelta(t, 42.0, upper[9], 1e-9)
		assert.InDelta(t, 42.0, lower[9], 1e-9)
	})

	t.Run("population stddev", func(t *testing.T) {
		upper, lower := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)
		// mean 3, population sd sqrt(2)
		assert.InDelta(t, 3+2*1.4142135, upper[4], 1e-6)
		assert.InDelta(t, 3-2*1.4142135, lower[4], 1e-6)
	})
}

func TestWilliamsR(t *testing.T) {
	highs := []float64{10, 10, 10}
	lows := []float64{5, 5, 5}

	t.Run("close at the high", func(t *testing.T) {
		wr := WilliamsR(highs, lows, []float64{7, 8, 10}, 3)
		assert.InDelta(t, 0.0, wr[2], 1e-9)
	})

	t.Run("close at the low", func(t *testing.T) {
		wr := WilliamsR(highs, lows, []float64{7, 8, 5}, 3)
		assert.InDelta(t, -100.0, wr[2], 1e-9)
	})

	t.Run("degenerate range", func(t *testing.T) {
		wr := WilliamsR(constant(3, 10), constant(3, 10), constant(3, 10), 3)
		assert.InDelta(t, -50.0, wr[2], 1e-9)
	})
}

func TestDonchian(t *testing.T) {
	highs := rising(6) // 1..6
	lows := make([]float64, 6)
	for i := range lows {
		lows[i] = highs[i] - 0.5
	}

	upper, lower := Donchian(highs, lows, 3)

	// The channel excludes the current bar: window is the prior 3 bars.
	assert.False(t, Defined(upper[2]))
	assert.Equal(t, 3, firstDefined(upper))
	assert.InDelta(t, 3.0, upper[3], 1e-9)
	assert.InDelta(t, 0.5, lower[3], 1e-9)
	assert.InDelta(t, 5.0, upper[5], 1e-9)
	assert.InDelta(t, 2.5, lower[5], 1e-9)
}
