// Package market defines the daily price history types consumed by the
// backtest engine.
package market

import (
	"fmt"
	"time"
)

// Bar represents one daily OHLCV price bar.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// History is an ordered daily bar sequence: ascending unique dates, OHLCV
// present. It is treated as immutable once loaded; nothing downstream
// mutates it.
type History []Bar

// Validate checks the ordering contract the engine depends on.
func (h History) Validate() error {
	if len(h) == 0 {
		return fmt.Errorf("empty price history")
	}
	for i, b := range h {
		if b.Date.IsZero() {
			return fmt.Errorf("bar %d: missing date", i)
		}
		if b.Close <= 0 || b.Open <= 0 || b.High <= 0 || b.Low <= 0 {
			return fmt.Errorf("bar %d (%s): non-positive price", i, b.Date.Format("2006-01-02"))
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d (%s): high %.4f below low %.4f", i, b.Date.Format("2006-01-02"), b.High, b.Low)
		}
		if i > 0 && !h[i-1].Date.Before(b.Date) {
			return fmt.Errorf("bar %d (%s): dates not strictly ascending", i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns the close series aligned with the history.
func (h History) Closes() []float64 {
	out := make([]float64, len(h))
	for i, b := range h {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high series aligned with the history.
func (h History) Highs() []float64 {
	out := make([]float64, len(h))
	for i, b := range h {
		out[i] = b.High
	}
	return out
}

// Lows returns the low series aligned with the history.
func (h History) Lows() []float64 {
	out := make([]float64, len(h))
	for i, b := range h {
		out[i] = b.Low
	}
	return out
}

func (h History) First() Bar { return h[0] }
func (h History) Last() Bar  { return h[len(h)-1] }
