// Package indicators provides technical analysis indicators for backtesting.
//
// Every function operates over the full price history and returns one or more
// series aligned 1:1 with the input. Positions before the indicator's lookback
// window hold NaN, never a fabricated number; callers test values with
// Defined. No function reads past the bar being computed.
package indicators

import "math"

// Defined reports whether a series value carries a real indicator value.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA calculates the Simple Moving Average of the values over the given
// period. The first period-1 positions are undefined.
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA calculates the Exponential Moving Average with the given span
// (multiplier 2/(span+1)). The first value is seeded with the SMA of the
// first span values, so the series becomes defined at index span-1.
func EMA(values []float64, span int) []float64 {
	out := nanSeries(len(values))
	if span <= 0 || len(values) < span {
		return out
	}

	sma := 0.0
	for i := 0; i < span; i++ {
		sma += values[i]
	}
	ema := sma / float64(span)
	out[span-1] = ema

	multiplier := 2.0 / float64(span+1)
	for i := span; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// RSI calculates the Relative Strength Index with Wilder smoothing: average
// gain and loss are exponentially smoothed with alpha = 1/period (center of
// mass period-1), seeded with the simple average of the first period deltas.
// Defined from index period onward. When the average loss reaches zero the
// RSI saturates at 100 instead of dividing by zero.
func RSI(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain += alpha * (gain - avgGain)
		avgLoss += alpha * (loss - avgLoss)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (EMA(fast) - EMA(slow)) and its signal line
// (EMA(signal) of the MACD line). The MACD line is defined from index slow-1,
// the signal line from index slow+signal-2.
func MACD(values []float64, fast, slow, signal int) (macd, signalLine []float64) {
	macd = nanSeries(len(values))
	signalLine = nanSeries(len(values))
	if fast <= 0 || slow <= 0 || signal <= 0 || len(values) < slow {
		return macd, signalLine
	}

	emaFast := EMA(values, fast)
	emaSlow := EMA(values, slow)
	for i := range values {
		if Defined(emaFast[i]) && Defined(emaSlow[i]) {
			macd[i] = emaFast[i] - emaSlow[i]
		}
	}

	// Signal line: EMA over the defined portion of the MACD line.
	first := slow - 1
	if len(values)-first < signal {
		return macd, signalLine
	}
	sig := EMA(macd[first:], signal)
	copy(signalLine[first:], sig)
	return macd, signalLine
}

// Stochastic returns the smoothed %K and %D lines of the stochastic
// oscillator over the given period. The raw stochastic compares each close to
// the high/low range of the trailing period bars; %K and %D each apply the
// classic 3-period-equivalent exponential smoothing (alpha 1/3). Both lines
// are defined from index period-1.
func Stochastic(highs, lows, closes []float64, period int) (k, d []float64) {
	n := len(closes)
	k = nanSeries(n)
	d = nanSeries(n)
	if period <= 0 || n < period {
		return k, d
	}

	const alpha = 1.0 / 3.0
	var prevK, prevD float64
	seeded := false

	for i := period - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		raw := 50.0
		if hh > ll {
			raw = (closes[i] - ll) / (hh - ll) * 100
		}

		if !seeded {
			prevK, prevD = raw, raw
			seeded = true
		} else {
			prevK += alpha * (raw - prevK)
			prevD += alpha * (prevK - prevD)
		}
		k[i] = prevK
		d[i] = prevD
	}
	return k, d
}

// Bollinger returns the upper and lower Bollinger Bands: SMA(period) plus and
// minus mult times the rolling population standard deviation. Defined from
// index period-1.
func Bollinger(values []float64, period int, mult float64) (upper, lower []float64) {
	n := len(values)
	upper = nanSeries(n)
	lower = nanSeries(n)
	if period <= 0 || n < period {
		return upper, lower
	}

	mid := SMA(values, period)
	for i := period - 1; i < n; i++ {
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			dev := values[j] - mid[i]
			variance += dev * dev
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = mid[i] + mult*sd
		lower[i] = mid[i] - mult*sd
	}
	return upper, lower
}

// WilliamsR calculates Williams %R over the given period: the close's
// position within the trailing high/low range scaled to [-100, 0]. Defined
// from index period-1.
func WilliamsR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSeries(n)
	if period <= 0 || n < period {
		return out
	}

	for i := period - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			out[i] = -50
			continue
		}
		out[i] = (hh - closes[i]) / (hh - ll) * -100
	}
	return out
}

// Donchian returns the breakout reference channel: the rolling max high and
// min low over the trailing period bars excluding the current bar (shifted by
// one so the channel a bar is compared against never includes that bar).
// Defined from index period onward.
func Donchian(highs, lows []float64, period int) (upper, lower []float64) {
	n := len(highs)
	upper = nanSeries(n)
	lower = nanSeries(n)
	if period <= 0 || n < period+1 {
		return upper, lower
	}

	for i := period; i < n; i++ {
		hh, ll := highs[i-1], lows[i-1]
		for j := i - period; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		upper[i] = hh
		lower[i] = ll
	}
	return upper, lower
}
