package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/logger"
	"stock-auto-trader/pkg/telegram"

	"go.uber.org/zap"
)

// AutoBuyService runs one buy cycle: plan, lock, order, record, notify.
type AutoBuyService interface {
	Execute(ctx context.Context, dryRun bool) (*dto.BuyRunResult, error)
}

type autoBuyService struct {
	cfg              *config.Config
	log              *logger.Logger
	recommendations  RecommendationService
	orders           OrderService
	locks            repository.TickerLockRepository
	recommendationDB repository.RecommendationRepository
	trailingRepo     repository.TrailingStopRepository
	partialRepo      repository.PartialSellHistoryRepository
	telegramBot      telegram.Notifier
	now              func() time.Time
}

func NewAutoBuyService(
	cfg *config.Config,
	log *logger.Logger,
	recommendations RecommendationService,
	orders OrderService,
	locks repository.TickerLockRepository,
	recommendationDB repository.RecommendationRepository,
	trailingRepo repository.TrailingStopRepository,
	partialRepo repository.PartialSellHistoryRepository,
	telegramBot telegram.Notifier,
) AutoBuyService {
	return &autoBuyService{
		cfg:              cfg,
		log:              log,
		recommendations:  recommendations,
		orders:           orders,
		locks:            locks,
		recommendationDB: recommendationDB,
		trailingRepo:     trailingRepo,
		partialRepo:      partialRepo,
		telegramBot:      telegramBot,
		now:              time.Now,
	}
}

func (s *autoBuyService) Execute(ctx context.Context, dryRun bool) (*dto.BuyRunResult, error) {
	dryRun = dryRun || s.cfg.Trading.DryRun

	plan, err := s.recommendations.Plan(ctx)
	if err != nil {
		return nil, err
	}
	s.storeSnapshot(ctx, plan.Ranked)

	result := &dto.BuyRunResult{
		DryRun:     dryRun,
		Candidates: len(plan.Ranked),
		Orders:     []dto.OrderOutcome{},
	}

	if len(plan.Intents) == 0 {
		s.log.InfoContext(ctx, "No buy candidates", logger.IntField("ranked", len(plan.Ranked)))
		s.notify(ctx, telegram.FormatNoBuyCandidatesMessage(len(plan.Ranked), plan.AvailableCash, s.now()))
		return result, nil
	}

	for _, intent := range plan.Intents {
		fields := []zap.Field{logger.StringField("ticker", intent.Ticker), logger.Field("quantity", intent.EstimatedQuantity)}

		release, err := s.locks.Acquire(ctx, intent.Ticker, s.cfg.Trading.TickerLockTTL)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, repository.ErrTickerLocked) {
				reason = "ticker locked by another run"
			}
			s.log.WarnContext(ctx, "Buy skipped, ticker lock not acquired", append(fields, logger.ErrorField(err))...)
			result.Skipped = append(result.Skipped, dto.SkippedTicker{Ticker: intent.Ticker, Reason: reason})
			continue
		}

		outcome := s.buy(ctx, intent, plan.Stocks[intent.Ticker], dryRun)
		result.Orders = append(result.Orders, outcome)

		if err := release(ctx); err != nil {
			s.log.WarnContext(ctx, "Failed to release ticker lock", append(fields, logger.ErrorField(err))...)
		}
	}
	return result, nil
}

func (s *autoBuyService) buy(ctx context.Context, intent trading.OrderIntent, stock entity.Stock, dryRun bool) dto.OrderOutcome {
	outcome := s.orders.Place(ctx, OrderPlacement{
		Order: dto.OrderRequest{
			Ticker:   intent.Ticker,
			Exchange: stock.Exchange,
			Side:     entity.OrderSideBuy,
			Quantity: intent.EstimatedQuantity,
			Price:    intent.EstimatedPrice,
		},
		DryRun:         dryRun,
		Reasons:        []string{intent.Rationale},
		CompositeScore: intent.CompositeScore,
		Priority:       intent.Priority,
	})

	if outcome.Status == string(entity.OrderStatusAccepted) {
		s.startTrailingStop(ctx, intent, stock)
		s.startPartialProfit(ctx, intent)
	}

	s.notify(ctx, telegram.FormatBuyOrderMessage(telegram.OrderNotice{
		Ticker:      intent.Ticker,
		Quantity:    intent.EstimatedQuantity,
		Price:       intent.EstimatedPrice,
		Accepted:    outcome.Status == string(entity.OrderStatusAccepted),
		DryRun:      dryRun,
		OrderNumber: outcome.OrderNumber,
		Message:     outcome.Error,
		At:          s.now(),
	}, intent))
	return outcome
}

func (s *autoBuyService) startTrailingStop(ctx context.Context, intent trading.OrderIntent, stock entity.Stock) {
	ts := s.cfg.Trading.Sell.TrailingStop
	if !ts.Enabled {
		return
	}
	leveraged := stock.IsLeveraged || ts.IsLeveraged(intent.Ticker)
	price, _ := intent.EstimatedPrice.Float64()
	state, err := trading.NewTrailingStop(intent.Ticker, price, ts.DistanceFor(leveraged), leveraged, s.now())
	if err != nil {
		s.log.WarnContext(ctx, "Failed to initialize trailing stop", logger.StringField("ticker", intent.Ticker), logger.ErrorField(err))
		return
	}
	row := &entity.TrailingStop{}
	row.Apply(state)
	if err := s.trailingRepo.Upsert(ctx, row); err != nil {
		s.log.ErrorContext(ctx, "Failed to store trailing stop", logger.StringField("ticker", intent.Ticker), logger.ErrorField(err))
	}
}

// startPartialProfit resets staged selling progress for the new position.
func (s *autoBuyService) startPartialProfit(ctx context.Context, intent trading.OrderIntent) {
	if !s.cfg.Trading.Sell.PartialProfit.Enabled {
		return
	}
	price, _ := intent.EstimatedPrice.Float64()
	row := &entity.PartialSellHistory{PurchasePrice: price}
	row.Apply(trading.NewPartialProfit(intent.Ticker, intent.EstimatedQuantity), false)
	if err := s.partialRepo.Upsert(ctx, row); err != nil {
		s.log.ErrorContext(ctx, "Failed to store partial sell history", logger.StringField("ticker", intent.Ticker), logger.ErrorField(err))
	}
}

func (s *autoBuyService) storeSnapshot(ctx context.Context, ranked []trading.CompositeRecommendation) {
	rows := make([]entity.CompositeRecommendation, 0, len(ranked))
	for _, rec := range ranked {
		data, err := json.Marshal(rec)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to marshal recommendation", logger.StringField("ticker", rec.Ticker), logger.ErrorField(err))
			continue
		}
		rows = append(rows, entity.CompositeRecommendation{
			Ticker:         rec.Ticker,
			TechScore:      rec.TechScore,
			CompositeScore: rec.CompositeScore,
			Priority:       rec.Priority,
			Decision:       string(rec.Decision),
			Eligible:       rec.Eligible,
			Rationale:      rec.Rationale,
			Data:           data,
		})
	}
	if err := s.recommendationDB.CreateBatch(ctx, rows); err != nil {
		s.log.ErrorContext(ctx, "Failed to store recommendation snapshot", logger.ErrorField(err))
	}
}

func (s *autoBuyService) notify(ctx context.Context, msg string) {
	if err := s.telegramBot.SendMessage(msg); err != nil {
		s.log.WarnContext(ctx, "Failed to send telegram message", logger.ErrorField(err))
	}
}
