package service

import (
	"context"
	"testing"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bars(ticker string, n int) []entity.PriceHistory {
	out := make([]entity.PriceHistory, n)
	for i := range out {
		out[i] = entity.PriceHistory{
			Ticker: ticker,
			Date:   fixedNow.AddDate(0, 0, i-n+1),
			Close:  100 + float64(i),
		}
	}
	return out
}

func TestTechnicalService_Refresh(t *testing.T) {
	signals := newFakeSignals()
	history := &fakePriceHistory{bars: map[string][]entity.PriceHistory{
		"AAPL": bars("AAPL", 80),
		"TSLA": bars("TSLA", 10),
	}}
	stocks := &fakeStocks{stocks: []entity.Stock{{Ticker: "AAPL"}, {Ticker: "NVDA"}, {Ticker: "TSLA"}}}
	svc := NewTechnicalService(testConfig(), logger.NewNop(), stocks, history, signals)

	result, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "NVDA", result.Failed[0].Ticker)
	assert.Equal(t, "TSLA", result.Failed[1].Ticker)

	require.Len(t, signals.saved, 1)
	saved := signals.saved[0]
	assert.Equal(t, "AAPL", saved.Ticker)
	assert.True(t, saved.Date.Equal(fixedNow))
	// a steadily rising series keeps the short average above the long one
	assert.True(t, saved.GoldenCross)
}
