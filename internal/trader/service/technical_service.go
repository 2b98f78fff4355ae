package service

import (
	"context"
	"fmt"

	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/logger"
)

// TechnicalService recomputes technical signals from stored price history.
type TechnicalService interface {
	Refresh(ctx context.Context) (*dto.TechnicalRefreshResult, error)
}

type technicalService struct {
	cfg          *config.Config
	log          *logger.Logger
	stocksRepo   repository.StocksRepository
	priceHistory repository.PriceHistoryRepository
	signals      repository.SignalRepository
}

func NewTechnicalService(cfg *config.Config, log *logger.Logger, stocksRepo repository.StocksRepository, priceHistory repository.PriceHistoryRepository, signals repository.SignalRepository) TechnicalService {
	return &technicalService{
		cfg:          cfg,
		log:          log,
		stocksRepo:   stocksRepo,
		priceHistory: priceHistory,
		signals:      signals,
	}
}

// Refresh computes one signal per active stock, dated on its latest bar. A
// ticker that fails is reported and the rest continue.
func (s *technicalService) Refresh(ctx context.Context) (*dto.TechnicalRefreshResult, error) {
	stocks, err := s.stocksRepo.GetActiveStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active stocks: %w", err)
	}

	result := &dto.TechnicalRefreshResult{}
	for _, stock := range stocks {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err := s.refreshTicker(ctx, stock.Ticker); err != nil {
			s.log.WarnContext(ctx, "Failed to refresh technical signal", logger.StringField("ticker", stock.Ticker), logger.ErrorField(err))
			result.Failed = append(result.Failed, dto.SkippedTicker{Ticker: stock.Ticker, Reason: err.Error()})
			continue
		}
		result.Updated++
	}

	s.log.InfoContext(ctx, "Technical signals refreshed",
		logger.IntField("updated", result.Updated),
		logger.IntField("failed", len(result.Failed)))
	return result, nil
}

func (s *technicalService) refreshTicker(ctx context.Context, ticker string) error {
	bars, err := s.priceHistory.GetRecentCloses(ctx, ticker, s.cfg.Trading.PriceLookback)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: no price history", trading.ErrInsufficientHistory)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	signal, err := trading.ComputeTechnicalSignal(ticker, bars[len(bars)-1].Date, closes)
	if err != nil {
		return err
	}
	return s.signals.SaveTechnical(ctx, signal)
}
