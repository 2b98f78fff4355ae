package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagedConfig() PartialProfitConfig {
	cfg := DefaultPartialProfitConfig()
	cfg.Enabled = true
	return cfg
}

func TestPartialProfitConfig_Next(t *testing.T) {
	cfg := stagedConfig()

	t.Run("first stage sells thirty percent of the initial quantity", func(t *testing.T) {
		ps, ok := cfg.Next(NewPartialProfit("AAPL", 100), 5, 100)
		require.True(t, ok)
		assert.Equal(t, PartialSell{Stage: 1, ProfitPct: 5, SellPct: 30, Quantity: 30}, ps)
	})

	t.Run("later stages are sized from the initial quantity, not the remainder", func(t *testing.T) {
		state := NewPartialProfit("AAPL", 100).Record(1)
		ps, ok := cfg.Next(state, 8, 70)
		require.True(t, ok)
		assert.Equal(t, 2, ps.Stage)
		assert.Equal(t, int64(30), ps.Quantity)
	})

	t.Run("last stage sells everything still held", func(t *testing.T) {
		state := NewPartialProfit("AAPL", 100).Record(1).Record(2)
		ps, ok := cfg.Next(state, 12, 41)
		require.True(t, ok)
		assert.Equal(t, 3, ps.Stage)
		assert.Equal(t, int64(41), ps.Quantity)
	})

	t.Run("a jump past several thresholds fires the lowest open stage only", func(t *testing.T) {
		ps, ok := cfg.Next(NewPartialProfit("AAPL", 100), 15, 100)
		require.True(t, ok)
		assert.Equal(t, 1, ps.Stage)
		assert.Equal(t, int64(30), ps.Quantity)
	})

	t.Run("nothing fires below the next threshold", func(t *testing.T) {
		_, ok := cfg.Next(NewPartialProfit("AAPL", 100), 3, 100)
		assert.False(t, ok)

		_, ok = cfg.Next(NewPartialProfit("AAPL", 100).Record(1), 7.9, 70)
		assert.False(t, ok)
	})

	t.Run("completed positions never fire again", func(t *testing.T) {
		state := NewPartialProfit("AAPL", 100).Record(1).Record(2).Record(3)
		_, ok := cfg.Next(state, 20, 5)
		assert.False(t, ok)
		assert.False(t, cfg.Open(state))
	})

	t.Run("quantity is at least one share and at most the held quantity", func(t *testing.T) {
		ps, ok := cfg.Next(NewPartialProfit("AAPL", 2), 5, 2)
		require.True(t, ok)
		assert.Equal(t, int64(1), ps.Quantity)

		ps, ok = cfg.Next(NewPartialProfit("AAPL", 100).Record(1), 8, 10)
		require.True(t, ok)
		assert.Equal(t, int64(10), ps.Quantity)
	})

	t.Run("unknown initial quantity falls back to the held quantity", func(t *testing.T) {
		ps, ok := cfg.Next(PartialProfit{Ticker: "AAPL"}, 5, 50)
		require.True(t, ok)
		assert.Equal(t, int64(15), ps.Quantity)
	})

	t.Run("disabled config never fires", func(t *testing.T) {
		_, ok := DefaultPartialProfitConfig().Next(NewPartialProfit("AAPL", 100), 20, 100)
		assert.False(t, ok)
	})
}

func TestPartialProfit_Record(t *testing.T) {
	orig := NewPartialProfit(" aapl ", 100)
	next := orig.Record(2).Record(1).Record(2)

	assert.Equal(t, "AAPL", next.Ticker)
	assert.Equal(t, []int{1, 2}, next.CompletedStages)
	assert.Empty(t, orig.CompletedStages)
	assert.True(t, next.Completed(1))
	assert.False(t, next.Completed(3))
}

func TestPartialProfitConfig_Validate(t *testing.T) {
	t.Run("disabled config is not checked", func(t *testing.T) {
		assert.NoError(t, PartialProfitConfig{}.Validate())
	})

	t.Run("default stages are valid", func(t *testing.T) {
		assert.NoError(t, stagedConfig().Validate())
	})

	cases := []struct {
		name   string
		stages []PartialProfitStage
		field  string
	}{
		{"no stages", nil, "partial_profit.stages"},
		{"thresholds must increase", []PartialProfitStage{{8, 30}, {5, 30}}, "partial_profit.stages[1].profit_pct"},
		{"threshold must be positive", []PartialProfitStage{{0, 30}}, "partial_profit.stages[0].profit_pct"},
		{"sell share must be positive", []PartialProfitStage{{5, 0}}, "partial_profit.stages[0].sell_pct"},
		{"shares cannot exceed the position", []PartialProfitStage{{5, 60}, {8, 60}}, "partial_profit.stages"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := PartialProfitConfig{Enabled: true, Stages: tc.stages}
			var cfgErr *ConfigurationError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}

	t.Run("sell thresholds reject a bad staged config", func(t *testing.T) {
		cfg := DefaultSellThresholds()
		cfg.PartialProfit = PartialProfitConfig{Enabled: true}
		_, err := NewSellEvaluator(cfg)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "partial_profit.stages", cfgErr.Field)
	})
}

func TestSellEvaluator_PartialProfit(t *testing.T) {
	now := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	e := newTestEvaluator(t, func(c *SellThresholds) { c.PartialProfit.Enabled = true })
	h := Holding{Ticker: "AAPL", PurchasePrice: 100, Quantity: 100}

	t.Run("first stage replaces the full take-profit exit", func(t *testing.T) {
		d, _, err := e.EvaluatePosition(h, 106, healthyTech(), nil, PositionState{}, now)
		require.NoError(t, err)

		assert.True(t, d.ShouldSell)
		assert.Equal(t, []string{"부분 익절 1단계 충족: 6.00% 상승, 30주 매도"}, d.Reasons)
		assert.Equal(t, SellPriorityTakeProfit, d.Priority)
		assert.Equal(t, int64(30), d.SellQuantity)
		require.NotNil(t, d.Partial)
		assert.Equal(t, 1, d.Partial.Stage)
		assert.False(t, d.FullExit())
	})

	t.Run("stored progress moves on to the next stage", func(t *testing.T) {
		state := NewPartialProfit("AAPL", 100).Record(1)
		d, next, err := e.EvaluatePosition(Holding{Ticker: "AAPL", PurchasePrice: 100, Quantity: 70}, 109, healthyTech(), nil,
			PositionState{Partial: &state}, now)
		require.NoError(t, err)

		require.NotNil(t, d.Partial)
		assert.Equal(t, 2, d.Partial.Stage)
		assert.Equal(t, int64(30), d.SellQuantity)
		assert.Equal(t, []int{1}, next.Partial.CompletedStages, "progress is recorded by the caller")
	})

	t.Run("stop-loss still exits the whole position", func(t *testing.T) {
		d, _, err := e.EvaluatePosition(h, 92, healthyTech(), nil, PositionState{}, now)
		require.NoError(t, err)
		assert.Equal(t, int64(100), d.SellQuantity)
		assert.Nil(t, d.Partial)
		assert.True(t, d.FullExit())
	})

	t.Run("a full exit trigger alongside a stage sells everything", func(t *testing.T) {
		tech := &TechnicalSignal{GoldenCross: false, RSI: 75, MACDBuySignal: false}
		d, _, err := e.EvaluatePosition(h, 106, tech, nil, PositionState{}, now)
		require.NoError(t, err)

		assert.Len(t, d.Reasons, 2)
		assert.Equal(t, int64(100), d.SellQuantity)
		assert.Nil(t, d.Partial)
	})

	t.Run("take-profit returns once every stage is sold", func(t *testing.T) {
		state := NewPartialProfit("AAPL", 100).Record(1).Record(2).Record(3)
		d, _, err := e.EvaluatePosition(Holding{Ticker: "AAPL", PurchasePrice: 100, Quantity: 3}, 106, healthyTech(), nil,
			PositionState{Partial: &state}, now)
		require.NoError(t, err)

		assert.Equal(t, []string{"익절 조건 충족: 6.00% 상승"}, d.Reasons)
		assert.Equal(t, int64(3), d.SellQuantity)
	})

	t.Run("trailing stop state still advances", func(t *testing.T) {
		ts, err := NewTrailingStop("AAPL", 100, 5, false, now)
		require.NoError(t, err)
		_, next, err := e.EvaluatePosition(h, 103, healthyTech(), nil, PositionState{Trailing: &ts}, now)
		require.NoError(t, err)
		require.NotNil(t, next.Trailing)
		assert.Equal(t, 103.0, next.Trailing.HighestPrice)
		assert.Equal(t, 100.0, ts.HighestPrice)
	})
}
