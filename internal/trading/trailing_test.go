package trading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailingStop(t *testing.T) {
	t0 := time.Date(2024, 3, 13, 14, 0, 0, 0, time.UTC)

	t.Run("initial stop sits distance below purchase", func(t *testing.T) {
		ts, err := NewTrailingStop("tqqq", 50, 7, true, t0)
		require.NoError(t, err)
		assert.Equal(t, "TQQQ", ts.Ticker)
		assert.Equal(t, 50.0, ts.HighestPrice)
		assert.InDelta(t, 46.5, ts.DynamicStopPrice, 1e-9)
		assert.True(t, ts.Active)
		assert.True(t, ts.Leveraged)
	})

	t.Run("stop only moves up", func(t *testing.T) {
		ts, err := NewTrailingStop("AAPL", 100, 5, false, t0)
		require.NoError(t, err)

		ts, moved := ts.Observe(110, t0.Add(time.Minute))
		assert.True(t, moved)
		assert.InDelta(t, 104.5, ts.DynamicStopPrice, 1e-9)
		assert.Equal(t, t0.Add(time.Minute), ts.HighestPriceAt)

		ts, moved = ts.Observe(105, t0.Add(2*time.Minute))
		assert.False(t, moved)
		assert.Equal(t, 110.0, ts.HighestPrice)
		assert.InDelta(t, 104.5, ts.DynamicStopPrice, 1e-9)
	})

	t.Run("triggers only above minimum profit and at or below the stop", func(t *testing.T) {
		ts, err := NewTrailingStop("AAPL", 100, 5, false, t0)
		require.NoError(t, err)
		ts, _ = ts.Observe(110, t0)

		assert.True(t, ts.Triggered(104, 3))
		assert.False(t, ts.Triggered(105, 3))
		assert.False(t, ts.Triggered(104, 5))
	})

	t.Run("inactive stop never triggers", func(t *testing.T) {
		ts, err := NewTrailingStop("AAPL", 100, 5, false, t0)
		require.NoError(t, err)
		ts, _ = ts.Observe(110, t0)
		ts.Active = false
		assert.False(t, ts.Triggered(104, 0))
	})

	t.Run("invalid inputs are rejected", func(t *testing.T) {
		_, err := NewTrailingStop("AAPL", 0, 5, false, t0)
		assert.ErrorIs(t, err, ErrInvalidPriceData)

		_, err = NewTrailingStop("AAPL", 100, 0, false, t0)
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})
}
