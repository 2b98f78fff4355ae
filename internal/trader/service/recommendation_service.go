package service

import (
	"context"
	"fmt"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/internal/trading"
	"stock-auto-trader/pkg/logger"

	"github.com/shopspring/decimal"
)

// BuyPlan is everything a buy run decided, before any order is placed.
type BuyPlan struct {
	Ranked        []trading.CompositeRecommendation
	Intents       []trading.OrderIntent
	AvailableCash decimal.Decimal
	PerStockCap   decimal.Decimal
	Held          trading.TickerSet
	Stocks        map[string]entity.Stock
}

// RecommendationService fuses the stored signals into ranked recommendations
// and buy intents.
type RecommendationService interface {
	Rank(ctx context.Context) ([]trading.CompositeRecommendation, error)
	Plan(ctx context.Context) (*BuyPlan, error)
	BuyCandidates(ctx context.Context) (*dto.BuyCandidatesResponse, error)
}

type recommendationService struct {
	cfg        *config.Config
	log        *logger.Logger
	stocksRepo repository.StocksRepository
	signals    repository.SignalRepository
	broker     repository.BrokerRepository
	selector   *trading.Selector
}

func NewRecommendationService(
	cfg *config.Config,
	log *logger.Logger,
	stocksRepo repository.StocksRepository,
	signals repository.SignalRepository,
	broker repository.BrokerRepository,
	selector *trading.Selector,
) RecommendationService {
	return &recommendationService{
		cfg:        cfg,
		log:        log,
		stocksRepo: stocksRepo,
		signals:    signals,
		broker:     broker,
		selector:   selector,
	}
}

// Rank scores every active ticker that has a technical signal. It does not
// touch the broker.
func (s *recommendationService) Rank(ctx context.Context) ([]trading.CompositeRecommendation, error) {
	candidates, _, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}
	return s.selector.Rank(candidates), nil
}

func (s *recommendationService) Plan(ctx context.Context) (*BuyPlan, error) {
	candidates, stocks, err := s.candidates(ctx)
	if err != nil {
		return nil, err
	}

	holdings, err := s.broker.GetHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	held := trading.NewTickerSet()
	for _, h := range holdings {
		held[trading.NormalizeTicker(h.Ticker)] = struct{}{}
	}

	cash, err := s.broker.GetAvailableCash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get available cash: %w", err)
	}

	ranked := s.selector.Rank(candidates)
	s.attachQuotes(ctx, candidates, ranked, held, stocks)

	perStockCap := s.cfg.Trading.PerStockCap()
	intents := s.selector.Select(candidates, held, cash, perStockCap, s.cfg.Trading.MaxStocksToBuy)

	s.log.InfoContext(ctx, "Buy plan computed",
		logger.IntField("candidates", len(candidates)),
		logger.IntField("ranked", len(ranked)),
		logger.IntField("intents", len(intents)),
		logger.StringField("available_cash", cash.String()))

	return &BuyPlan{
		Ranked:        ranked,
		Intents:       intents,
		AvailableCash: cash,
		PerStockCap:   perStockCap,
		Held:          held,
		Stocks:        stocks,
	}, nil
}

func (s *recommendationService) BuyCandidates(ctx context.Context) (*dto.BuyCandidatesResponse, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	heldTickers := make([]string, 0, len(plan.Held))
	for t := range plan.Held {
		heldTickers = append(heldTickers, t)
	}
	return &dto.BuyCandidatesResponse{
		AvailableCash: plan.AvailableCash,
		PerStockCap:   plan.PerStockCap,
		MaxCount:      s.cfg.Trading.MaxStocksToBuy,
		HeldTickers:   heldTickers,
		Candidates:    plan.Intents,
	}, nil
}

// candidates loads the latest signals of every active stock. Tickers without a
// technical signal are skipped since nothing can be scored for them.
func (s *recommendationService) candidates(ctx context.Context) ([]trading.Candidate, map[string]entity.Stock, error) {
	stocks, err := s.stocksRepo.GetActiveStocks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get active stocks: %w", err)
	}

	byTicker := make(map[string]entity.Stock, len(stocks))
	candidates := make([]trading.Candidate, 0, len(stocks))
	for _, stock := range stocks {
		ticker := trading.NormalizeTicker(stock.Ticker)
		byTicker[ticker] = stock

		tech, err := s.signals.LatestTechnical(ctx, ticker)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get technical signal for %s: %w", ticker, err)
		}
		if tech == nil {
			s.log.DebugContext(ctx, "No technical signal, ticker skipped", logger.StringField("ticker", ticker))
			continue
		}
		pred, err := s.signals.LatestPrediction(ctx, ticker)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get prediction for %s: %w", ticker, err)
		}
		sent, err := s.signals.LatestSentiment(ctx, ticker)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sentiment for %s: %w", ticker, err)
		}
		candidates = append(candidates, trading.Candidate{
			Ticker:     ticker,
			Technical:  *tech,
			Prediction: pred,
			Sentiment:  sent,
		})
	}
	return candidates, byTicker, nil
}

// attachQuotes fetches live prices only for tickers the selector could buy.
// A failed quote leaves the prediction's last price in use.
func (s *recommendationService) attachQuotes(ctx context.Context, candidates []trading.Candidate, ranked []trading.CompositeRecommendation, held trading.TickerSet, stocks map[string]entity.Stock) {
	buyable := make(map[string]struct{})
	for _, rec := range ranked {
		if rec.Eligible && !held.Contains(rec.Ticker) {
			buyable[rec.Ticker] = struct{}{}
		}
	}
	for i := range candidates {
		ticker := candidates[i].Ticker
		if _, ok := buyable[ticker]; !ok {
			continue
		}
		price, err := s.broker.GetCurrentPrice(ctx, ticker, stocks[ticker].Exchange)
		if err != nil {
			s.log.WarnContext(ctx, "Quote unavailable, using last predicted price", logger.StringField("ticker", ticker), logger.ErrorField(err))
			continue
		}
		candidates[i].QuotePrice = price
	}
}
