package trading

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T, mutate func(*SellThresholds)) *SellEvaluator {
	t.Helper()
	cfg := DefaultSellThresholds()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewSellEvaluator(cfg)
	require.NoError(t, err)
	return e
}

func holding(purchase float64) Holding {
	return Holding{Ticker: "AAPL", PurchasePrice: purchase, Quantity: 10}
}

func healthyTech() *TechnicalSignal {
	return &TechnicalSignal{GoldenCross: true, RSI: 55, MACDBuySignal: true}
}

func TestSellEvaluator_Evaluate(t *testing.T) {
	e := newTestEvaluator(t, nil)

	t.Run("stop-loss triggers at exactly -7 percent", func(t *testing.T) {
		d, err := e.Evaluate(holding(100), 93, healthyTech(), nil)
		require.NoError(t, err)
		assert.InDelta(t, -7.0, d.PriceChangePct, 1e-9)
		assert.True(t, d.ShouldSell)
		assert.Equal(t, []string{"손절 조건 충족: -7.00% 하락"}, d.Reasons)
		assert.Equal(t, SellPriorityStopLoss, d.Priority)
	})

	t.Run("take-profit triggers at exactly 5 percent", func(t *testing.T) {
		d, err := e.Evaluate(holding(100), 105, healthyTech(), nil)
		require.NoError(t, err)
		assert.True(t, d.ShouldSell)
		assert.Equal(t, []string{"익절 조건 충족: 5.00% 상승"}, d.Reasons)
		assert.Equal(t, SellPriorityTakeProfit, d.Priority)
		assert.Equal(t, int64(10), d.SellQuantity)
		assert.True(t, d.FullExit())
	})

	t.Run("technical deterioration triggers without stop-loss", func(t *testing.T) {
		tech := &TechnicalSignal{GoldenCross: false, RSI: 75, MACDBuySignal: false}
		d, err := e.Evaluate(holding(100), 94, tech, nil)
		require.NoError(t, err)

		assert.True(t, d.ShouldSell)
		assert.Equal(t, []string{"기술적 매도 신호"}, d.Reasons)
		assert.Equal(t, 3, d.TechnicalSellCount)
		assert.Equal(t, []string{"데드 크로스", "RSI 과매수(75.00)", "MACD 매도 신호"}, d.TechnicalDetails)
		assert.Equal(t, SellPriorityTechnical, d.Priority)
	})

	t.Run("two technical conditions alone do not sell", func(t *testing.T) {
		tech := &TechnicalSignal{GoldenCross: false, RSI: 60, MACDBuySignal: false}
		d, err := e.Evaluate(holding(100), 100, tech, sentiment(0))
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)
		assert.Empty(t, d.Reasons)
		assert.Equal(t, 2, d.TechnicalSellCount)
	})

	t.Run("negative sentiment with two technical conditions sells", func(t *testing.T) {
		tech := &TechnicalSignal{GoldenCross: false, RSI: 60, MACDBuySignal: false}
		d, err := e.Evaluate(holding(100), 100, tech, sentiment(-0.2))
		require.NoError(t, err)
		assert.True(t, d.ShouldSell)
		assert.Equal(t, []string{"감정 악화 + 기술적 매도 신호"}, d.Reasons)
		require.NotNil(t, d.SentimentScore)
		assert.Equal(t, -0.2, *d.SentimentScore)
	})

	t.Run("sentiment exactly at the threshold does not sell", func(t *testing.T) {
		tech := &TechnicalSignal{GoldenCross: false, RSI: 60, MACDBuySignal: false}
		d, err := e.Evaluate(holding(100), 100, tech, sentiment(-0.15))
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)
	})

	t.Run("all triggers are collected", func(t *testing.T) {
		tech := &TechnicalSignal{GoldenCross: false, RSI: 80, MACDBuySignal: false}
		d, err := e.Evaluate(holding(100), 90, tech, sentiment(-0.5))
		require.NoError(t, err)
		assert.Equal(t, []string{
			"손절 조건 충족: -10.00% 하락",
			"기술적 매도 신호",
			"감정 악화 + 기술적 매도 신호",
		}, d.Reasons)
		assert.Len(t, d.Triggers, 3)
		assert.Equal(t, SellPriorityStopLoss, d.Priority)
	})

	t.Run("missing technical data contributes no technical trigger", func(t *testing.T) {
		d, err := e.Evaluate(holding(100), 99, nil, sentiment(-0.9))
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)
		assert.Equal(t, 0, d.TechnicalSellCount)
	})

	t.Run("sentiment that is not a number is ignored", func(t *testing.T) {
		tech := &TechnicalSignal{GoldenCross: false, RSI: 55, MACDBuySignal: false}
		d, err := e.Evaluate(holding(100), 99, tech, sentiment(math.NaN()))
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)
		assert.Nil(t, d.SentimentScore)
		assert.Equal(t, int64(0), d.SellQuantity)
	})

	t.Run("should sell iff reasons is non-empty", func(t *testing.T) {
		for _, price := range []float64{50, 92, 93, 94, 100, 104, 105, 150} {
			d, err := e.Evaluate(holding(100), price, healthyTech(), nil)
			require.NoError(t, err)
			assert.Equal(t, len(d.Reasons) > 0, d.ShouldSell, "price %v", price)
		}
	})

	t.Run("unavailable current price is an error, not a hold", func(t *testing.T) {
		for _, price := range []float64{0, -1} {
			d, err := e.Evaluate(holding(100), price, healthyTech(), nil)
			require.ErrorIs(t, err, ErrPriceUnavailable)
			assert.False(t, d.ShouldSell)
			assert.Empty(t, d.Ticker)
		}
	})

	t.Run("invalid purchase price is reported", func(t *testing.T) {
		_, err := e.Evaluate(holding(0), 100, healthyTech(), nil)
		assert.ErrorIs(t, err, ErrInvalidPriceData)
	})
}

func TestSellEvaluator_Config(t *testing.T) {
	t.Run("positive stop-loss is rejected", func(t *testing.T) {
		cfg := DefaultSellThresholds()
		cfg.StopLossPct = 2
		_, err := NewSellEvaluator(cfg)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "sell.stop_loss_pct", cfgErr.Field)
	})

	t.Run("non-positive take-profit is rejected", func(t *testing.T) {
		cfg := DefaultSellThresholds()
		cfg.TakeProfitPct = 0
		_, err := NewSellEvaluator(cfg)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("overridden thresholds are applied", func(t *testing.T) {
		e := newTestEvaluator(t, func(c *SellThresholds) {
			c.TakeProfitPct = 10
			c.StopLossPct = -3
		})
		d, err := e.Evaluate(holding(100), 105, healthyTech(), nil)
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)

		d, err = e.Evaluate(holding(100), 97, healthyTech(), nil)
		require.NoError(t, err)
		assert.True(t, d.ShouldSell)
	})
}

func TestSellEvaluator_TrailingStop(t *testing.T) {
	now := time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)
	e := newTestEvaluator(t, func(c *SellThresholds) {
		c.TrailingStop.Enabled = true
		c.TakeProfitPct = 50
	})

	state, err := NewTrailingStop("AAPL", 100, 5, false, now)
	require.NoError(t, err)

	t.Run("new high raises the stop and does not trigger", func(t *testing.T) {
		d, next, err := e.EvaluateWithTrailingStop(holding(100), 120, healthyTech(), nil, state, now)
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)
		assert.Equal(t, 120.0, next.HighestPrice)
		assert.InDelta(t, 114.0, next.DynamicStopPrice, 1e-9)
		state = next
	})

	t.Run("pullback to the stop with profit triggers", func(t *testing.T) {
		d, next, err := e.EvaluateWithTrailingStop(holding(100), 113, healthyTech(), nil, state, now.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, d.ShouldSell)
		assert.Equal(t, SellPriorityTrailingStop, d.Priority)
		assert.Equal(t, 120.0, next.HighestPrice)
	})

	t.Run("below minimum profit never triggers", func(t *testing.T) {
		low, err := NewTrailingStop("AAPL", 100, 5, false, now)
		require.NoError(t, err)
		d, _, err := e.EvaluateWithTrailingStop(holding(100), 94, healthyTech(), nil, low, now)
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)
	})

	t.Run("disabled trailing stop is ignored", func(t *testing.T) {
		off := newTestEvaluator(t, func(c *SellThresholds) { c.TakeProfitPct = 50 })
		d, _, err := off.EvaluateWithTrailingStop(holding(100), 113, healthyTech(), nil, state, now)
		require.NoError(t, err)
		assert.False(t, d.ShouldSell)
	})

	t.Run("unavailable price returns the state untouched", func(t *testing.T) {
		_, next, err := e.EvaluateWithTrailingStop(holding(100), 0, healthyTech(), nil, state, now)
		require.ErrorIs(t, err, ErrPriceUnavailable)
		assert.Equal(t, state, next)
	})
}

func TestSortSellDecisions(t *testing.T) {
	ds := []SellDecision{
		{Ticker: "NONE", Priority: SellPriorityNone, PriceChangePct: 50},
		{Ticker: "TECH", Priority: SellPriorityTechnical, PriceChangePct: -1},
		{Ticker: "TP_SMALL", Priority: SellPriorityTakeProfit, PriceChangePct: 6},
		{Ticker: "TP_BIG", Priority: SellPriorityTakeProfit, PriceChangePct: 12},
		{Ticker: "SL", Priority: SellPriorityStopLoss, PriceChangePct: -8},
	}
	SortSellDecisions(ds)

	var got []string
	for _, d := range ds {
		got = append(got, d.Ticker)
	}
	assert.Equal(t, []string{"SL", "TP_BIG", "TP_SMALL", "TECH", "NONE"}, got)
}
