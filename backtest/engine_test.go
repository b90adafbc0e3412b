package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stratlab/market"
	"github.com/rustyeddy/stratlab/strategy"
)

func flatBars(n int, price float64) market.History {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	h := make(market.History, n)
	for i := range h {
		h[i] = market.Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
	}
	return h
}

// alwaysEnterConfig fires its entry rule on every bar once the RSI is
// defined: a flat or any bounded series always reads below 200.
func alwaysEnterConfig() *strategy.Config {
	cfg := strategy.Default()
	cfg.Mode = strategy.ModeAdvanced
	cfg.EntryRules = []strategy.Rule{
		{Kind: strategy.RSIThreshold, Params: map[string]float64{"period": 14, "threshold": 200}},
	}
	return cfg
}

func assertLedgerConsistent(t *testing.T, run *Run) {
	t.Helper()
	prevExit := -1
	for i, tr := range run.Trades {
		assert.Greater(t, tr.ExitBar, tr.EntryBar, "trade %d", i)
		assert.GreaterOrEqual(t, tr.EntryBar, prevExit, "trade %d overlaps", i)
		prevExit = tr.ExitBar
	}
	assert.Len(t, run.Equity, len(run.Bars))
	assert.Len(t, run.Invested, len(run.Bars))
}

func TestFlatHistoryProducesNoTrades(t *testing.T) {
	bars := flatBars(70, 100)

	run, err := Execute(bars, strategy.Default())
	require.NoError(t, err)

	assert.Empty(t, run.Trades)
	assert.Empty(t, run.Fills)
	for _, ep := range run.Equity {
		assert.Equal(t, 100_000.0, ep.Equity)
	}
	assertLedgerConsistent(t, run)
	assert.NotEmpty(t, run.ID)
}

func TestInsufficientHistory(t *testing.T) {
	t.Run("below the floor", func(t *testing.T) {
		_, err := Execute(flatBars(50, 100), strategy.Default())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("below the configured lookback", func(t *testing.T) {
		cfg := strategy.Default()
		cfg.Mode = strategy.ModeAdvanced
		cfg.EntryRules = []strategy.Rule{
			{Kind: strategy.SMACross, Params: map[string]float64{"fast": 30, "slow": 80}},
		}
		_, err := Execute(flatBars(70, 100), cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestStopLossExit(t *testing.T) {
	bars := flatBars(70, 100)
	bars[60] = market.Bar{Date: bars[60].Date, Open: 85, High: 85, Low: 80, Close: 82}

	cfg := alwaysEnterConfig()
	cfg.StopLossPct = 10

	run, err := Execute(bars, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, run.Trades)

	first := run.Trades[0]
	assert.Equal(t, 14, first.EntryBar)
	assert.Equal(t, 60, first.ExitBar)
	assert.Equal(t, 100.0, first.EntryPrice)
	assert.Equal(t, 90.0, first.ExitPrice) // fill at the stop level, not the low
	assert.Equal(t, "StopLoss", first.Reason)
	assert.Equal(t, 997.0, first.Size) // floor(100000 / (100 * 1.002925))
	assert.Less(t, first.PnL, 0.0)

	assertLedgerConsistent(t, run)
}

func TestTakeProfitExit(t *testing.T) {
	bars := flatBars(70, 100)
	bars[60] = market.Bar{Date: bars[60].Date, Open: 115, High: 120, Low: 112, Close: 118}

	cfg := alwaysEnterConfig()
	cfg.TakeProfitPct = 10

	run, err := Execute(bars, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, run.Trades)

	first := run.Trades[0]
	assert.Equal(t, 110.0, first.ExitPrice)
	assert.Equal(t, "TakeProfit", first.Reason)
	assert.Greater(t, first.PnL, 0.0)
}

func TestStopBeatsTakeInOneBar(t *testing.T) {
	bars := flatBars(70, 100)
	// Both levels inside the bar's range: the pessimistic fill wins.
	bars[60] = market.Bar{Date: bars[60].Date, Open: 100, High: 120, Low: 80, Close: 100}

	cfg := alwaysEnterConfig()
	cfg.StopLossPct = 10
	cfg.TakeProfitPct = 10

	run, err := Execute(bars, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, run.Trades)

	assert.Equal(t, "StopLoss", run.Trades[0].Reason)
	assert.Equal(t, 90.0, run.Trades[0].ExitPrice)
}

func TestTrailingStopRatchet(t *testing.T) {
	bars := flatBars(70, 100)
	bars[65] = market.Bar{Date: bars[65].Date, Open: 103, High: 105, Low: 103, Close: 105}
	bars[66] = market.Bar{Date: bars[66].Date, Open: 106, High: 110, Low: 106, Close: 110}
	bars[67] = market.Bar{Date: bars[67].Date, Open: 111, High: 115, Low: 111, Close: 115}
	bars[68] = market.Bar{Date: bars[68].Date, Open: 100, High: 100, Low: 95, Close: 96}
	bars[69] = market.Bar{Date: bars[69].Date, Open: 96, High: 96, Low: 95, Close: 96}

	cfg := alwaysEnterConfig()
	cfg.TrailingStopPct = 10

	run, err := Execute(bars, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, run.Trades)

	// Peak close 115 ratchets the stop to 103.5; the crash bar fills there,
	// well above the initial 90 level.
	first := run.Trades[0]
	assert.Equal(t, 68, first.ExitBar)
	assert.Equal(t, 103.5, first.ExitPrice)
	assert.Equal(t, "StopLoss", first.Reason)
	assert.Greater(t, first.PnL, 0.0)

	assertLedgerConsistent(t, run)
}

func TestNoEntryOnFinalBar(t *testing.T) {
	bars := flatBars(70, 100)
	// Breakout only on the very last bar.
	bars[69] = market.Bar{Date: bars[69].Date, Open: 100, High: 200, Low: 100, Close: 200}

	cfg := strategy.Default()
	cfg.Mode = strategy.ModeAdvanced
	cfg.EntryRules = []strategy.Rule{
		{Kind: strategy.DonchianBreakout, Params: map[string]float64{"period": 20}},
	}

	run, err := Execute(bars, cfg)
	require.NoError(t, err)

	assert.Empty(t, run.Trades)
	for _, ep := range run.Equity {
		assert.Equal(t, 100_000.0, ep.Equity)
	}
}

func TestEntryWithoutCashFailsRun(t *testing.T) {
	cfg := alwaysEnterConfig()
	cfg.InitialCash = 50 // cannot afford one unit at 100

	run, err := Execute(flatBars(70, 100), cfg)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Contains(t, err.Error(), "cannot buy one unit")
}

func TestEndOfDataForceClose(t *testing.T) {
	run, err := Execute(flatBars(70, 100), alwaysEnterConfig())
	require.NoError(t, err)
	require.Len(t, run.Trades, 1)

	tr := run.Trades[0]
	assert.Equal(t, 14, tr.EntryBar)
	assert.Equal(t, 69, tr.ExitBar)
	assert.Equal(t, "EndOfData", tr.Reason)
	// Flat prices: the round trip loses exactly the commission.
	assert.Less(t, tr.PnL, 0.0)

	// The final equity point reflects the forced close.
	final := run.Equity[len(run.Equity)-1].Equity
	assert.Less(t, final, 100_000.0)
	assertLedgerConsistent(t, run)
}
