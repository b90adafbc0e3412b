// Package datafeed acquires daily price history for the backtester: a remote
// source (Alpaca), a local CSV loader, an in-memory memoizer, and an on-disk
// SQLite cache. The backtest core never does I/O itself; it consumes the
// market.History these produce.
package datafeed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/stratlab/market"
)

// ErrNoData marks a fetch that returned zero bars for the requested range.
var ErrNoData = errors.New("no price data")

// Source supplies the daily price history for one symbol over a date range.
// Implementations must return bars with ascending unique dates, OHLCV
// present, gaps filled, and no timezone offset on the dates.
type Source interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (market.History, error)
}

type memoKey struct {
	symbol     string
	start, end string
}

// MemoSource memoizes fetches by (symbol, start, end) so repeated requests
// for the same range hit the network once per process.
type MemoSource struct {
	src Source

	mu    sync.Mutex
	cache map[memoKey]market.History
}

func NewMemoSource(src Source) *MemoSource {
	return &MemoSource{
		src:   src,
		cache: make(map[memoKey]market.History),
	}
}

func (m *MemoSource) Fetch(ctx context.Context, symbol string, start, end time.Time) (market.History, error) {
	key := memoKey{symbol, start.Format("2006-01-02"), end.Format("2006-01-02")}

	m.mu.Lock()
	if h, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return h, nil
	}
	m.mu.Unlock()

	h, err := m.src.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[key] = h
	m.mu.Unlock()
	return h, nil
}

// normalize strips timezone offsets, sorts out zero fields by forward then
// backward filling closes into missing OHLC values, and validates the result.
func normalize(h market.History) (market.History, error) {
	for i := range h {
		d := h[i].Date
		h[i].Date = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	for i := range h {
		if h[i].Close == 0 && i > 0 {
			h[i].Close = h[i-1].Close // forward fill
		}
	}
	for i := len(h) - 2; i >= 0; i-- {
		if h[i].Close == 0 {
			h[i].Close = h[i+1].Close // backward fill a leading gap
		}
	}
	for i := range h {
		if h[i].Open == 0 {
			h[i].Open = h[i].Close
		}
		if h[i].High == 0 {
			h[i].High = h[i].Close
		}
		if h[i].Low == 0 {
			h[i].Low = h[i].Close
		}
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("normalize bars: %w", err)
	}
	return h, nil
}
