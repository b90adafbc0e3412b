package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stratlab/market"
)

func historyFromCloses(closes []float64) market.History {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := make(market.History, len(closes))
	for i, c := range closes {
		h[i] = market.Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return h
}

func advancedConfig(entry, exit []Rule) *Config {
	cfg := Default()
	cfg.Mode = ModeAdvanced
	cfg.EntryRules = entry
	cfg.ExitRules = exit
	return cfg
}

// Closes engineered so SMA(2) crosses above SMA(3) at bar 4 and back below
// at bar 7.
var crossCloses = []float64{10, 9, 8, 7, 12, 18, 10, 2}

func smaRule() Rule {
	return Rule{Kind: SMACross, Params: map[string]float64{"fast": 2, "slow": 3}}
}

func TestEvaluatorCrossover(t *testing.T) {
	bars := historyFromCloses(crossCloses)
	eval, err := NewEvaluator(bars, advancedConfig([]Rule{smaRule()}, []Rule{smaRule()}))
	require.NoError(t, err)

	for i := range bars {
		assert.Equal(t, i == 4, eval.Entry(i), "entry at bar %d", i)
		assert.Equal(t, i == 7, eval.Exit(i), "exit at bar %d", i)
	}
}

func TestEvaluatorEntryIsConjunction(t *testing.T) {
	bars := historyFromCloses(crossCloses)

	t.Run("all rules must fire", func(t *testing.T) {
		// RSI below 101 is always true once defined, so the cross decides.
		eval, err := NewEvaluator(bars, advancedConfig([]Rule{
			smaRule(),
			{Kind: RSIThreshold, Params: map[string]float64{"period": 2, "threshold": 101}},
		}, nil))
		require.NoError(t, err)
		assert.True(t, eval.Entry(4))
	})

	t.Run("one failing rule vetoes", func(t *testing.T) {
		// RSI below -1 is never true, so the conjunction never fires.
		eval, err := NewEvaluator(bars, advancedConfig([]Rule{
			smaRule(),
			{Kind: RSIThreshold, Params: map[string]float64{"period": 2, "threshold": -1}},
		}, nil))
		require.NoError(t, err)
		for i := range bars {
			assert.False(t, eval.Entry(i))
		}
	})
}

func TestEvaluatorEmptyExitNeverFires(t *testing.T) {
	bars := historyFromCloses(crossCloses)
	eval, err := NewEvaluator(bars, advancedConfig([]Rule{smaRule()}, nil))
	require.NoError(t, err)

	for i := range bars {
		assert.False(t, eval.Exit(i))
	}
}

func TestEvaluatorUndefinedIsFalse(t *testing.T) {
	bars := historyFromCloses(crossCloses)
	eval, err := NewEvaluator(bars, advancedConfig([]Rule{
		{Kind: RSIThreshold, Params: map[string]float64{"period": 14, "threshold": 101}},
	}, nil))
	require.NoError(t, err)

	// 8 bars cannot define a 14-period RSI anywhere.
	for i := range bars {
		assert.False(t, eval.Entry(i))
	}
}

func TestEvaluatorRejectsBadRule(t *testing.T) {
	bars := historyFromCloses(crossCloses)
	_, err := NewEvaluator(bars, advancedConfig([]Rule{
		{Kind: "MAGIC", Params: map[string]float64{}},
	}, nil))
	assert.Error(t, err)
}

func TestEvaluatorNotes(t *testing.T) {
	bars := historyFromCloses(crossCloses)
	eval, err := NewEvaluator(bars, advancedConfig([]Rule{
		smaRule(),
		{Kind: RSIThreshold, Params: map[string]float64{"period": 2, "threshold": 101}},
	}, []Rule{smaRule()}))
	require.NoError(t, err)

	note := eval.EntryNote(4)
	assert.Contains(t, note, "SMA(2):9.50 / SMA(3):9.00")
	assert.Contains(t, note, " | RSI(2):")

	assert.Contains(t, eval.ExitNote(7), "SMA(2):6.00 / SMA(3):10.00")
}
