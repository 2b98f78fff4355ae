package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/common"
	"stock-auto-trader/pkg/logger"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SellMonitorStrategy queues every holding for sell evaluation, most urgent
// first. Holdings without a price are queued too so the consumer retries and
// alerts on them.
type SellMonitorStrategy struct {
	logger       *logger.Logger
	redisClient  goRedis.Cmdable
	holdings     HoldingsReader
	planner      SellPlanner
	streamMaxLen int64
}

func NewSellMonitorStrategy(
	log *logger.Logger,
	redisClient goRedis.Cmdable,
	holdings HoldingsReader,
	planner SellPlanner,
	streamMaxLen int64) JobExecutionStrategy {
	return &SellMonitorStrategy{
		logger:       log,
		redisClient:  redisClient,
		holdings:     holdings,
		planner:      planner,
		streamMaxLen: streamMaxLen,
	}
}

func (s *SellMonitorStrategy) GetType() entity.JobType {
	return entity.JobTypeSellMonitor
}

func (s *SellMonitorStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	holdings, err := s.holdings.GetHoldings(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get holdings", logger.ErrorField(err))
		return "", fmt.Errorf("failed to get holdings: %w", err)
	}

	byTicker := make(map[string]trading.Holding, len(holdings))
	for _, h := range holdings {
		byTicker[trading.NormalizeTicker(h.Ticker)] = h
	}

	result := dto.SellRunResult{}
	for _, evaluation := range s.planner.EvaluateHoldings(ctx, holdings) {
		h, ok := byTicker[trading.NormalizeTicker(evaluation.Ticker)]
		if !ok {
			continue
		}
		fieldsLog := []zap.Field{
			logger.StringField("ticker", h.Ticker),
			logger.StringField("status", evaluation.Status),
		}

		streamData := dto.StreamDataSellEvaluation{
			Ticker:        h.Ticker,
			Name:          h.Name,
			Exchange:      h.Exchange,
			PurchasePrice: h.PurchasePrice,
			Quantity:      h.Quantity,
			BrokerPrice:   h.CurrentPrice,
			DryRun:        job.DryRun,
		}
		streamDataJSON, err := json.Marshal(streamData)
		if err != nil {
			s.logger.Error("Failed to marshal sell evaluation payload", append(fieldsLog, logger.ErrorField(err))...)
			result.Skipped = append(result.Skipped, dto.SkippedTicker{Ticker: h.Ticker, Reason: err.Error()})
			continue
		}

		if err := s.redisClient.XAdd(ctx, &goRedis.XAddArgs{
			Stream: common.RedisStreamSellEvaluation,
			Values: map[string]interface{}{"payload": string(streamDataJSON)},
			MaxLen: s.streamMaxLen,
			Approx: s.streamMaxLen > 0,
		}).Err(); err != nil {
			s.logger.Error("Failed to enqueue sell evaluation task", append(fieldsLog, logger.ErrorField(err))...)
			result.Skipped = append(result.Skipped, dto.SkippedTicker{Ticker: h.Ticker, Reason: err.Error()})
			continue
		}
		result.Queued++
		s.logger.Debug("Sell evaluation queued", fieldsLog...)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("Failed to marshal results", logger.ErrorField(err))
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(resultJSON), nil
}
