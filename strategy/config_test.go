package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})

	t.Run("basic requires short below long", func(t *testing.T) {
		cfg := Default()
		cfg.Basic.MAShort = 60
		cfg.Basic.MALong = 10
		assert.Error(t, cfg.Validate())
	})

	t.Run("advanced requires an entry rule", func(t *testing.T) {
		cfg := Default()
		cfg.Mode = ModeAdvanced
		assert.Error(t, cfg.Validate())

		cfg.EntryRules = []Rule{{Kind: DonchianBreakout, Params: map[string]float64{"period": 20}}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("periodic allows zero initial cash", func(t *testing.T) {
		cfg := Default()
		cfg.Mode = ModePeriodic
		cfg.InitialCash = 0
		cfg.Periodic = PeriodicParams{Amount: 1000, FixedFee: 10, DaysOfMonth: []int{5}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("periodic rejects bad days", func(t *testing.T) {
		cfg := Default()
		cfg.Mode = ModePeriodic
		cfg.Periodic = PeriodicParams{Amount: 1000, DaysOfMonth: []int{32}}
		assert.Error(t, cfg.Validate())

		cfg.Periodic.DaysOfMonth = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative risk percentages rejected", func(t *testing.T) {
		cfg := Default()
		cfg.StopLossPct = -5
		assert.Error(t, cfg.Validate())
	})

	t.Run("rule modes require positive cash", func(t *testing.T) {
		cfg := Default()
		cfg.InitialCash = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestCommissionRate(t *testing.T) {
	cfg := Default()
	// (0.1425 + 0.4425) / 2 / 100
	assert.InDelta(t, 0.002925, cfg.CommissionRate(), 1e-9)
}

func TestBasicModeRuleExpansion(t *testing.T) {
	cfg := Default()

	entry := cfg.entrySet()
	require.Len(t, entry, 2)
	assert.Equal(t, SMACross, entry[0].Kind)
	assert.Equal(t, 10.0, entry[0].Params["fast"])
	assert.Equal(t, 60.0, entry[0].Params["slow"])
	assert.Equal(t, RSIThreshold, entry[1].Kind)
	assert.Equal(t, 30.0, entry[1].Params["threshold"])

	exit := cfg.exitSet()
	require.Len(t, exit, 2)
	assert.Equal(t, 70.0, exit[1].Params["threshold"])
}

func TestMaxLookback(t *testing.T) {
	// Basic mode: SMA slow 60 dominates RSI 14.
	assert.Equal(t, 61, Default().MaxLookback())

	cfg := Default()
	cfg.Mode = ModeAdvanced
	cfg.EntryRules = []Rule{{Kind: MACDCross, Params: map[string]float64{"fast": 12, "slow": 26, "signal": 9}}}
	cfg.ExitRules = []Rule{{Kind: BollingerBreak, Params: map[string]float64{"period": 20, "std": 2}}}
	assert.Equal(t, 35, cfg.MaxLookback())

	cfg.Mode = ModePeriodic
	cfg.EntryRules = nil
	cfg.ExitRules = nil
	assert.Equal(t, 0, cfg.MaxLookback())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "strat.yaml")
		data := `
mode: advanced
entry_rules:
  - kind: DONCHIAN_BREAKOUT
    params:
      period: 20
exit_rules:
  - kind: RSI_THRESHOLD
    params:
      period: 14
      threshold: 70
stop_loss_pct: 8
initial_cash: 250000
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, ModeAdvanced, cfg.Mode)
		require.Len(t, cfg.EntryRules, 1)
		assert.Equal(t, DonchianBreakout, cfg.EntryRules[0].Kind)
		assert.Equal(t, 20.0, cfg.EntryRules[0].Params["period"])
		assert.Equal(t, 8.0, cfg.StopLossPct)
		assert.Equal(t, 250000.0, cfg.InitialCash)
		// Defaults survive for fields the file omits.
		assert.Equal(t, 0.1425, cfg.BuyFeePct)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "strat.json")
		data := `{"mode": "periodic", "periodic": {"amount": 1000, "fixed_fee": 10, "days_of_month": [5, 20]}, "initial_cash": 0}`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, ModePeriodic, cfg.Mode)
		assert.Equal(t, []int{5, 20}, cfg.Periodic.DaysOfMonth)
	})

	t.Run("invalid rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("mode: advanced\n"), 0644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}
