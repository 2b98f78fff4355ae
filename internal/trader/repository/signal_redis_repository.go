package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/common"

	"github.com/redis/go-redis/v9"
)

const (
	signalKindTechnical  = "technical"
	signalKindPrediction = "prediction"
	signalKindSentiment  = "sentiment"
)

type redisSignalRepository struct {
	client redis.Cmdable
}

// NewRedisSignalRepository returns a signal store that keeps the latest
// signal per ticker as JSON under trader:signal:<kind>:<ticker>.
func NewRedisSignalRepository(client redis.Cmdable) SignalRepository {
	return &redisSignalRepository{client: client}
}

// SignalKey returns the redis key for one signal kind of a ticker.
func SignalKey(kind, ticker string) string {
	return fmt.Sprintf("%s:%s:%s", common.RedisKeySignalPrefix, kind, ticker)
}

func (r *redisSignalRepository) LatestTechnical(ctx context.Context, ticker string) (*trading.TechnicalSignal, error) {
	var sig trading.TechnicalSignal
	ok, err := r.get(ctx, SignalKey(signalKindTechnical, ticker), &sig)
	if err != nil || !ok {
		return nil, err
	}
	// flags are derived, never trusted from the payload
	sig = trading.NewTechnicalSignal(ticker, sig.Date, sig.SMA20, sig.SMA50, sig.RSI, sig.MACD, sig.SignalLine)
	return &sig, nil
}

func (r *redisSignalRepository) LatestPrediction(ctx context.Context, ticker string) (*trading.PredictionSignal, error) {
	var sig trading.PredictionSignal
	ok, err := r.get(ctx, SignalKey(signalKindPrediction, ticker), &sig)
	if err != nil || !ok {
		return nil, err
	}
	at := sig.PredictedAt
	sig = trading.NewPredictionSignal(ticker, sig.AccuracyPct, sig.RiseProbabilityPct, sig.LastActualPrice, sig.PredictedFuturePrice)
	sig.PredictedAt = at
	return &sig, nil
}

func (r *redisSignalRepository) LatestSentiment(ctx context.Context, ticker string) (*trading.SentimentSignal, error) {
	var sig trading.SentimentSignal
	ok, err := r.get(ctx, SignalKey(signalKindSentiment, ticker), &sig)
	if err != nil || !ok {
		return nil, err
	}
	sig.Ticker = ticker
	return &sig, nil
}

func (r *redisSignalRepository) SaveTechnical(ctx context.Context, sig trading.TechnicalSignal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, SignalKey(signalKindTechnical, sig.Ticker), payload, 0).Err()
}

func (r *redisSignalRepository) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
