package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/common"
	"stock-auto-trader/pkg/logger"
	"stock-auto-trader/pkg/telegram"
	"stock-auto-trader/pkg/tracing"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	evaluationStatusEvaluated        = string(entity.SellEvaluationEvaluated)
	evaluationStatusPriceUnavailable = string(entity.SellEvaluationPriceUnavailable)
	evaluationStatusError            = "error"
)

// SellEvaluationService evaluates held positions and sells the ones whose
// exit conditions fire. Holdings arrive one per stream message.
type SellEvaluationService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Execute(ctx context.Context, streamData dto.StreamDataSellEvaluation) error
	// EvaluateAll evaluates every holding without placing orders or moving
	// trailing stops. Results are in sell order.
	EvaluateAll(ctx context.Context) ([]dto.SellEvaluationResult, error)
	EvaluateHoldings(ctx context.Context, holdings []trading.Holding) []dto.SellEvaluationResult
}

type sellEvaluationService struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  redis.Cmdable
	broker       repository.BrokerRepository
	signals      repository.SignalRepository
	stocksRepo   repository.StocksRepository
	trailingRepo repository.TrailingStopRepository
	partialRepo  repository.PartialSellHistoryRepository
	evalRepo     repository.SellEvaluationRepository
	locks        repository.TickerLockRepository
	orders       OrderService
	evaluator    *trading.SellEvaluator
	telegramBot  telegram.Notifier
	now          func() time.Time
}

func NewSellEvaluationService(
	cfg *config.Config,
	log *logger.Logger,
	redisClient redis.Cmdable,
	broker repository.BrokerRepository,
	signals repository.SignalRepository,
	stocksRepo repository.StocksRepository,
	trailingRepo repository.TrailingStopRepository,
	partialRepo repository.PartialSellHistoryRepository,
	evalRepo repository.SellEvaluationRepository,
	locks repository.TickerLockRepository,
	orders OrderService,
	evaluator *trading.SellEvaluator,
	telegramBot telegram.Notifier,
) SellEvaluationService {
	return &sellEvaluationService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		broker:       broker,
		signals:      signals,
		stocksRepo:   stocksRepo,
		trailingRepo: trailingRepo,
		partialRepo:  partialRepo,
		evalRepo:     evalRepo,
		locks:        locks,
		orders:       orders,
		evaluator:    evaluator,
		telegramBot:  telegramBot,
		now:          time.Now,
	}
}

func (s *sellEvaluationService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamSellEvaluation, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		s.log.Debug("No messages found", logger.StringField("stream", common.RedisStreamSellEvaluation))
		return
	}

	message := streams[0].Messages[0]
	streamData, ok := s.decode(message)
	if !ok {
		// malformed payloads can never succeed
		_ = s.AckNDel(ctx, common.RedisStreamSellEvaluation, message.ID)
		return
	}

	loggerFields := []zap.Field{
		logger.StringField("ticker", streamData.Ticker),
		logger.StringField("message_id", message.ID),
	}
	s.log.Debug("Processing sell evaluation task", loggerFields...)

	if err := s.Execute(ctx, streamData); err != nil {
		loggerFields = append(loggerFields, logger.ErrorField(err))
		s.log.Error("Failed to execute sell evaluation task", loggerFields...)
		if errors.Is(err, trading.ErrPriceUnavailable) {
			s.notify(telegram.FormatPriceUnavailableMessage(streamData.Ticker, 1, s.now()))
		}
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamSellEvaluation, message.ID); err != nil {
		return
	}
	s.log.Debug("Sell evaluation task processed successfully", loggerFields...)
}

func (s *sellEvaluationService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamSellEvaluation,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Stream.SellEvaluationMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim sell evaluation task on retry", logger.ErrorField(err))
		return
	}

	if len(msgs) == 0 {
		s.log.Debug("Retry No pending messages found", logger.StringField("stream", common.RedisStreamSellEvaluation))
		return
	}

	msg := msgs[0]
	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamSellEvaluation,
		Group:  common.RedisStreamGroup,
		Start:  msg.ID,
		End:    msg.ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}
	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim",
			logger.StringField("stream", common.RedisStreamSellEvaluation),
			logger.StringField("message_id", msg.ID))
		return
	}

	streamData, ok := s.decode(msg)
	if !ok {
		_ = s.AckNDel(ctx, common.RedisStreamSellEvaluation, msg.ID)
		return
	}

	// RetryCount is the delivery count, which XAUTOCLAIM has already bumped
	// for this claim. The first delivery is not a retry.
	attempt := pendingInfo[0].RetryCount
	retries := attempt - 1
	if err := s.Execute(ctx, streamData); err != nil {
		s.log.Error("Failed to retry sell evaluation",
			logger.ErrorField(err),
			logger.StringField("message_id", msg.ID),
			logger.StringField("ticker", streamData.Ticker),
			logger.IntField("retry_count", int(retries)))

		if retries < int64(s.cfg.Stream.SellEvaluationMaxRetry) {
			if errors.Is(err, trading.ErrPriceUnavailable) {
				s.notify(telegram.FormatPriceUnavailableMessage(streamData.Ticker, attempt, s.now()))
			}
			return
		}

		s.log.Error("pending msg retry count exceeded",
			logger.StringField("stream", common.RedisStreamSellEvaluation),
			logger.StringField("message_id", msg.ID),
			logger.StringField("ticker", streamData.Ticker),
			logger.IntField("retry_count", int(retries)),
			logger.IntField("max_retry", s.cfg.Stream.SellEvaluationMaxRetry))
		errType := fmt.Sprintf("Retry count exceeded for event %s", common.RedisStreamSellEvaluation)
		data := fmt.Sprintf("%s | qty %d | buy %.2f", streamData.Ticker, streamData.Quantity, streamData.PurchasePrice)
		s.notify(telegram.FormatErrorAlertMessage(s.now(), errType, err.Error(), data))
		_ = s.AckNDel(ctx, common.RedisStreamSellEvaluation, msg.ID)
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamSellEvaluation, msg.ID); err != nil {
		return
	}
	s.log.Info("Retry sell evaluation task processed successfully", logger.StringField("ticker", streamData.Ticker))
}

// Execute evaluates one holding and sells it when a condition fires. An
// unavailable price is returned as an error so the message is retried; it is
// never treated as a hold.
func (s *sellEvaluationService) Execute(ctx context.Context, streamData dto.StreamDataSellEvaluation) error {
	ctx, span := tracing.StartSpan(ctx, "sell.evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", streamData.Ticker))

	holding := trading.Holding{
		Ticker:        trading.NormalizeTicker(streamData.Ticker),
		Name:          streamData.Name,
		Exchange:      streamData.Exchange,
		PurchasePrice: streamData.PurchasePrice,
		Quantity:      streamData.Quantity,
		CurrentPrice:  streamData.BrokerPrice,
	}

	decision, err := s.evaluate(ctx, holding, true)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, trading.ErrPriceUnavailable) {
			s.storeEvaluation(ctx, &entity.SellEvaluation{
				Ticker:        holding.Ticker,
				Status:        entity.SellEvaluationPriceUnavailable,
				PurchasePrice: holding.PurchasePrice,
				Quantity:      holding.Quantity,
				Reasons:       []string{},
				ErrorMessage:  sql.NullString{String: err.Error(), Valid: true},
				EvaluatedAt:   s.now(),
			})
		}
		return err
	}

	s.storeEvaluation(ctx, &entity.SellEvaluation{
		Ticker:             decision.Ticker,
		Status:             entity.SellEvaluationEvaluated,
		PurchasePrice:      decision.PurchasePrice,
		CurrentPrice:       sql.NullFloat64{Float64: decision.CurrentPrice, Valid: true},
		PriceChangePct:     sql.NullFloat64{Float64: decision.PriceChangePct, Valid: true},
		Quantity:           decision.Quantity,
		ShouldSell:         decision.ShouldSell,
		Priority:           int(decision.Priority),
		Reasons:            decision.Reasons,
		TechnicalSellCount: decision.TechnicalSellCount,
		EvaluatedAt:        s.now(),
	})
	span.SetAttributes(attribute.Bool("should_sell", decision.ShouldSell))

	if !decision.ShouldSell {
		s.log.DebugContext(ctx, "Hold", logger.StringField("ticker", decision.Ticker), logger.FloatField("price_change_pct", decision.PriceChangePct))
		return nil
	}

	release, err := s.locks.Acquire(ctx, decision.Ticker, s.cfg.Trading.TickerLockTTL)
	if err != nil {
		return fmt.Errorf("sell %s: %w", decision.Ticker, err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.log.WarnContext(ctx, "Failed to release ticker lock", logger.StringField("ticker", decision.Ticker), logger.ErrorField(err))
		}
	}()

	dryRun := streamData.DryRun || s.cfg.Trading.DryRun
	price := decimal.NewFromFloat(decision.CurrentPrice)
	outcome := s.orders.Place(ctx, OrderPlacement{
		Order: dto.OrderRequest{
			Ticker:   decision.Ticker,
			Exchange: holding.Exchange,
			Side:     entity.OrderSideSell,
			Quantity: decision.SellQuantity,
			Price:    price,
		},
		DryRun:   dryRun,
		Reasons:  decision.Reasons,
		Priority: int(decision.Priority),
	})

	accepted := outcome.Status == string(entity.OrderStatusAccepted)
	if accepted && decision.Partial != nil {
		s.recordPartialSell(ctx, holding, *decision.Partial)
	}
	// a stage that leaves shares behind keeps the trailing stop running
	if accepted && decision.FullExit() {
		if err := s.trailingRepo.Deactivate(ctx, decision.Ticker); err != nil {
			s.log.ErrorContext(ctx, "Failed to deactivate trailing stop", logger.StringField("ticker", decision.Ticker), logger.ErrorField(err))
		}
	}

	s.notify(telegram.FormatSellOrderMessage(telegram.OrderNotice{
		Ticker:      decision.Ticker,
		Quantity:    decision.SellQuantity,
		Price:       price,
		Accepted:    accepted,
		DryRun:      dryRun,
		OrderNumber: outcome.OrderNumber,
		Message:     outcome.Error,
		At:          s.now(),
	}, decision))
	return nil
}

func (s *sellEvaluationService) EvaluateAll(ctx context.Context) ([]dto.SellEvaluationResult, error) {
	holdings, err := s.broker.GetHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	return s.EvaluateHoldings(ctx, holdings), nil
}

// EvaluateHoldings orders evaluated holdings by sell priority. Holdings that
// could not be evaluated come last.
func (s *sellEvaluationService) EvaluateHoldings(ctx context.Context, holdings []trading.Holding) []dto.SellEvaluationResult {
	var decisions []trading.SellDecision
	var failed []dto.SellEvaluationResult
	for _, h := range holdings {
		d, err := s.evaluate(ctx, h, false)
		if err != nil {
			status := evaluationStatusError
			if errors.Is(err, trading.ErrPriceUnavailable) {
				status = evaluationStatusPriceUnavailable
			}
			failed = append(failed, dto.SellEvaluationResult{Ticker: h.Ticker, Status: status, Error: err.Error()})
			continue
		}
		decisions = append(decisions, d)
	}

	trading.SortSellDecisions(decisions)
	results := make([]dto.SellEvaluationResult, 0, len(decisions)+len(failed))
	for i := range decisions {
		d := decisions[i]
		results = append(results, dto.SellEvaluationResult{Ticker: d.Ticker, Status: evaluationStatusEvaluated, Decision: &d})
	}
	return append(results, failed...)
}

func (s *sellEvaluationService) evaluate(ctx context.Context, h trading.Holding, persistTrailing bool) (trading.SellDecision, error) {
	price, err := s.currentPrice(ctx, h)
	if err != nil {
		return trading.SellDecision{}, err
	}

	tech, err := s.signals.LatestTechnical(ctx, h.Ticker)
	if err != nil {
		return trading.SellDecision{}, fmt.Errorf("failed to get technical signal for %s: %w", h.Ticker, err)
	}
	sent, err := s.signals.LatestSentiment(ctx, h.Ticker)
	if err != nil {
		return trading.SellDecision{}, fmt.Errorf("failed to get sentiment for %s: %w", h.Ticker, err)
	}

	var st trading.PositionState
	if s.cfg.Trading.Sell.PartialProfit.Enabled {
		history, err := s.partialRepo.FindByTicker(ctx, h.Ticker)
		if err != nil {
			return trading.SellDecision{}, fmt.Errorf("failed to get partial sell history for %s: %w", h.Ticker, err)
		}
		if history != nil {
			partial := history.ToState()
			st.Partial = &partial
		}
	}

	ts := s.cfg.Trading.Sell.TrailingStop
	if !ts.Enabled {
		decision, _, err := s.evaluator.EvaluatePosition(h, price, tech, sent, st, s.now())
		return decision, err
	}

	row, err := s.trailingRepo.FindByTicker(ctx, h.Ticker)
	if err != nil {
		return trading.SellDecision{}, fmt.Errorf("failed to get trailing stop for %s: %w", h.Ticker, err)
	}
	var state trading.TrailingStop
	if row != nil && row.IsActive {
		state = row.ToState()
	} else {
		leveraged := ts.IsLeveraged(h.Ticker) || s.isLeveragedStock(ctx, h.Ticker)
		state, err = trading.NewTrailingStop(h.Ticker, h.PurchasePrice, ts.DistanceFor(leveraged), leveraged, s.now())
		if err != nil {
			return trading.SellDecision{}, err
		}
		row = &entity.TrailingStop{}
	}
	st.Trailing = &state

	decision, next, err := s.evaluator.EvaluatePosition(h, price, tech, sent, st, s.now())
	if err != nil {
		return trading.SellDecision{}, err
	}
	if persistTrailing && (row.ID == 0 || *next.Trailing != state) {
		row.Apply(*next.Trailing)
		if err := s.trailingRepo.Upsert(ctx, row); err != nil {
			s.log.ErrorContext(ctx, "Failed to store trailing stop", logger.StringField("ticker", h.Ticker), logger.ErrorField(err))
		}
	}
	return decision, nil
}

// recordPartialSell marks a stage as sold. A position bought outside the
// service gets its history started from the quantity held before the sale.
func (s *sellEvaluationService) recordPartialSell(ctx context.Context, h trading.Holding, sold trading.PartialSell) {
	cfg := s.cfg.Trading.Sell.PartialProfit
	row, err := s.partialRepo.FindByTicker(ctx, h.Ticker)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get partial sell history", logger.StringField("ticker", h.Ticker), logger.ErrorField(err))
		return
	}
	state := trading.NewPartialProfit(h.Ticker, h.Quantity)
	if row != nil {
		state = row.ToState()
	} else {
		row = &entity.PartialSellHistory{PurchasePrice: h.PurchasePrice}
	}

	state = state.Record(sold.Stage)
	remaining := h.Quantity - sold.Quantity
	row.Apply(state, !cfg.Open(state) || remaining <= 0)
	if err := s.partialRepo.Upsert(ctx, row); err != nil {
		s.log.ErrorContext(ctx, "Failed to store partial sell history", logger.StringField("ticker", h.Ticker), logger.ErrorField(err))
		return
	}
	s.log.InfoContext(ctx, "Partial profit stage sold",
		logger.StringField("ticker", h.Ticker),
		logger.IntField("stage", sold.Stage),
		logger.Field("quantity", sold.Quantity),
		logger.Field("remaining", remaining))
}

// currentPrice prefers a fresh quote and falls back to the price the broker
// reported with the holding. Without either the price is unavailable.
func (s *sellEvaluationService) currentPrice(ctx context.Context, h trading.Holding) (float64, error) {
	price, err := s.broker.GetCurrentPrice(ctx, h.Ticker, h.Exchange)
	if err == nil && usablePrice(price) {
		return price, nil
	}
	if usablePrice(h.CurrentPrice) {
		s.log.WarnContext(ctx, "Quote unavailable, using broker reported price",
			logger.StringField("ticker", h.Ticker),
			logger.FloatField("price", h.CurrentPrice),
			logger.ErrorField(err))
		return h.CurrentPrice, nil
	}
	switch {
	case err == nil:
		return 0, fmt.Errorf("%w: %s: quote %v", trading.ErrPriceUnavailable, h.Ticker, price)
	case errors.Is(err, trading.ErrPriceUnavailable):
		return 0, err
	default:
		return 0, fmt.Errorf("%w: %s: %v", trading.ErrPriceUnavailable, h.Ticker, err)
	}
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}

func (s *sellEvaluationService) isLeveragedStock(ctx context.Context, ticker string) bool {
	stock, err := s.stocksRepo.FindByTicker(ctx, ticker)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to look up stock", logger.StringField("ticker", ticker), logger.ErrorField(err))
		return false
	}
	return stock != nil && stock.IsLeveraged
}

func (s *sellEvaluationService) storeEvaluation(ctx context.Context, eval *entity.SellEvaluation) {
	if err := s.evalRepo.Create(ctx, eval); err != nil {
		s.log.ErrorContext(ctx, "Failed to store sell evaluation", logger.StringField("ticker", eval.Ticker), logger.ErrorField(err))
	}
}

func (s *sellEvaluationService) decode(message redis.XMessage) (dto.StreamDataSellEvaluation, bool) {
	var streamData dto.StreamDataSellEvaluation
	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return streamData, false
	}
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return streamData, false
	}
	return streamData, true
}

func (s *sellEvaluationService) notify(msg string) {
	if err := s.telegramBot.SendMessage(msg); err != nil {
		s.log.Warn("Failed to send telegram message", logger.ErrorField(err))
	}
}

// AckNDel acknowledges and removes a processed message.
func (s *sellEvaluationService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge sell evaluation task",
			logger.StringField("stream_name", streamName),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err))
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete sell evaluation task",
			logger.StringField("stream_name", streamName),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err))
		return err
	}
	return nil
}
