package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/common"
	"stock-auto-trader/pkg/logger"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream records XADD calls. Every other command panics.
type fakeStream struct {
	goRedis.Cmdable
	added []*goRedis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(_ context.Context, a *goRedis.XAddArgs) *goRedis.StringCmd {
	if f.err != nil {
		return goRedis.NewStringResult("", f.err)
	}
	f.added = append(f.added, a)
	return goRedis.NewStringResult("1-0", nil)
}

type fakeHoldings struct {
	holdings []trading.Holding
	err      error
}

func (f *fakeHoldings) GetHoldings(context.Context) ([]trading.Holding, error) {
	return f.holdings, f.err
}

type fakePlanner struct {
	order []string
}

func (f *fakePlanner) EvaluateHoldings(_ context.Context, _ []trading.Holding) []dto.SellEvaluationResult {
	out := make([]dto.SellEvaluationResult, len(f.order))
	for i, t := range f.order {
		out[i] = dto.SellEvaluationResult{Ticker: t, Status: "evaluated"}
	}
	return out
}

type fakeBuyer struct {
	dryRun bool
	err    error
}

func (f *fakeBuyer) Execute(_ context.Context, dryRun bool) (*dto.BuyRunResult, error) {
	f.dryRun = dryRun
	if f.err != nil {
		return nil, f.err
	}
	return &dto.BuyRunResult{DryRun: dryRun, Candidates: 3}, nil
}

type fakeRefresher struct{}

func (fakeRefresher) Refresh(context.Context) (*dto.TechnicalRefreshResult, error) {
	return &dto.TechnicalRefreshResult{Updated: 4}, nil
}

func TestSellMonitorStrategy_Execute(t *testing.T) {
	holdings := &fakeHoldings{holdings: []trading.Holding{
		{Ticker: "AAPL", Exchange: "NASD", PurchasePrice: 150, Quantity: 2},
		{Ticker: "TSLA", Exchange: "NASD", PurchasePrice: 200, Quantity: 1},
		{Ticker: "KO", Exchange: "NYSE", PurchasePrice: 60, Quantity: 10},
	}}

	t.Run("queues holdings in sell order", func(t *testing.T) {
		stream := &fakeStream{}
		s := NewSellMonitorStrategy(logger.NewNop(), stream, holdings, &fakePlanner{order: []string{"TSLA", "KO", "AAPL"}}, 1000)

		output, err := s.Execute(context.Background(), &entity.Job{Name: "sell", DryRun: true})
		require.NoError(t, err)

		require.Len(t, stream.added, 3)
		var tickers []string
		for _, a := range stream.added {
			assert.Equal(t, common.RedisStreamSellEvaluation, a.Stream)
			assert.Equal(t, int64(1000), a.MaxLen)
			values, ok := a.Values.(map[string]interface{})
			require.True(t, ok)
			var data dto.StreamDataSellEvaluation
			require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &data))
			assert.True(t, data.DryRun)
			tickers = append(tickers, data.Ticker)
		}
		assert.Equal(t, []string{"TSLA", "KO", "AAPL"}, tickers)

		var result dto.SellRunResult
		require.NoError(t, json.Unmarshal([]byte(output), &result))
		assert.Equal(t, 3, result.Queued)
	})

	t.Run("enqueue failures are reported per ticker", func(t *testing.T) {
		stream := &fakeStream{err: errors.New("redis down")}
		s := NewSellMonitorStrategy(logger.NewNop(), stream, holdings, &fakePlanner{order: []string{"AAPL"}}, 0)

		output, err := s.Execute(context.Background(), &entity.Job{Name: "sell"})
		require.NoError(t, err)

		var result dto.SellRunResult
		require.NoError(t, json.Unmarshal([]byte(output), &result))
		assert.Equal(t, 0, result.Queued)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, "AAPL", result.Skipped[0].Ticker)
	})

	t.Run("holdings failure fails the run", func(t *testing.T) {
		s := NewSellMonitorStrategy(logger.NewNop(), &fakeStream{}, &fakeHoldings{err: errors.New("token expired")}, &fakePlanner{}, 0)

		_, err := s.Execute(context.Background(), &entity.Job{Name: "sell"})
		assert.Error(t, err)
	})
}

func TestAutoBuyStrategy_Execute(t *testing.T) {
	t.Run("passes the job dry run flag", func(t *testing.T) {
		buyer := &fakeBuyer{}
		s := NewAutoBuyStrategy(logger.NewNop(), buyer)
		assert.Equal(t, entity.JobTypeAutoBuy, s.GetType())

		output, err := s.Execute(context.Background(), &entity.Job{Name: "buy", DryRun: true})
		require.NoError(t, err)

		assert.True(t, buyer.dryRun)
		assert.JSONEq(t, `{"dry_run":true,"candidates":3,"orders":null}`, output)
	})

	t.Run("wraps buyer errors", func(t *testing.T) {
		s := NewAutoBuyStrategy(logger.NewNop(), &fakeBuyer{err: errors.New("no cash")})

		_, err := s.Execute(context.Background(), &entity.Job{Name: "buy"})
		assert.EqualError(t, err, "auto buy: no cash")
	})
}

func TestTechnicalRefreshStrategy_Execute(t *testing.T) {
	s := NewTechnicalRefreshStrategy(logger.NewNop(), fakeRefresher{})
	assert.Equal(t, entity.JobTypeTechnicalRefresh, s.GetType())

	output, err := s.Execute(context.Background(), &entity.Job{Name: "refresh"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"updated":4}`, output)
}
