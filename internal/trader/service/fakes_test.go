package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/internal/trading"

	"github.com/shopspring/decimal"
)

// 11:00 New York on a Wednesday
var fixedNow = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Trading.TickerLockTTL = time.Minute
	return &cfg
}

type fakeBroker struct {
	mu       sync.Mutex
	holdings []trading.Holding
	cash     decimal.Decimal
	prices   map[string]float64
	priceErr map[string]error
	result   *dto.OrderResult
	orderErr error
	orders   []dto.OrderRequest
}

func (f *fakeBroker) GetHoldings(context.Context) ([]trading.Holding, error) {
	return f.holdings, nil
}

func (f *fakeBroker) GetAvailableCash(context.Context) (decimal.Decimal, error) {
	return f.cash, nil
}

func (f *fakeBroker) GetCurrentPrice(_ context.Context, ticker, _ string) (float64, error) {
	if err := f.priceErr[ticker]; err != nil {
		return 0, err
	}
	p, ok := f.prices[ticker]
	if !ok {
		return 0, trading.ErrPriceUnavailable
	}
	return p, nil
}

func (f *fakeBroker) SubmitOrder(_ context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, req)
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &dto.OrderResult{Success: true, OrderNumber: "0001"}, nil
}

type fakeSignals struct {
	technical  map[string]trading.TechnicalSignal
	prediction map[string]trading.PredictionSignal
	sentiment  map[string]trading.SentimentSignal
	saved      []trading.TechnicalSignal
}

func newFakeSignals() *fakeSignals {
	return &fakeSignals{
		technical:  map[string]trading.TechnicalSignal{},
		prediction: map[string]trading.PredictionSignal{},
		sentiment:  map[string]trading.SentimentSignal{},
	}
}

func (f *fakeSignals) LatestTechnical(_ context.Context, ticker string) (*trading.TechnicalSignal, error) {
	if s, ok := f.technical[ticker]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeSignals) LatestPrediction(_ context.Context, ticker string) (*trading.PredictionSignal, error) {
	if s, ok := f.prediction[ticker]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeSignals) LatestSentiment(_ context.Context, ticker string) (*trading.SentimentSignal, error) {
	if s, ok := f.sentiment[ticker]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeSignals) SaveTechnical(_ context.Context, sig trading.TechnicalSignal) error {
	f.saved = append(f.saved, sig)
	return nil
}

type fakeStocks struct {
	stocks []entity.Stock
}

func (f *fakeStocks) GetActiveStocks(context.Context) ([]entity.Stock, error) {
	return f.stocks, nil
}

func (f *fakeStocks) FindByTicker(_ context.Context, ticker string) (*entity.Stock, error) {
	for i := range f.stocks {
		if f.stocks[i].Ticker == ticker {
			return &f.stocks[i], nil
		}
	}
	return nil, nil
}

type fakePriceHistory struct {
	bars map[string][]entity.PriceHistory
}

func (f *fakePriceHistory) GetRecentCloses(_ context.Context, ticker string, limit int) ([]entity.PriceHistory, error) {
	bars := f.bars[ticker]
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

type fakeTrailing struct {
	rows        map[string]entity.TrailingStop
	deactivated []string
}

func newFakeTrailing() *fakeTrailing {
	return &fakeTrailing{rows: map[string]entity.TrailingStop{}}
}

func (f *fakeTrailing) FindByTicker(_ context.Context, ticker string) (*entity.TrailingStop, error) {
	if row, ok := f.rows[ticker]; ok {
		return &row, nil
	}
	return nil, nil
}

func (f *fakeTrailing) Upsert(_ context.Context, stop *entity.TrailingStop) error {
	row := *stop
	if row.ID == 0 {
		row.ID = uint(len(f.rows) + 1)
	}
	f.rows[row.Ticker] = row
	return nil
}

func (f *fakeTrailing) Deactivate(_ context.Context, ticker string) error {
	f.deactivated = append(f.deactivated, ticker)
	if row, ok := f.rows[ticker]; ok {
		row.IsActive = false
		f.rows[ticker] = row
	}
	return nil
}

type fakePartials struct {
	rows map[string]entity.PartialSellHistory
}

func newFakePartials() *fakePartials {
	return &fakePartials{rows: map[string]entity.PartialSellHistory{}}
}

func (f *fakePartials) FindByTicker(_ context.Context, ticker string) (*entity.PartialSellHistory, error) {
	if row, ok := f.rows[ticker]; ok {
		return &row, nil
	}
	return nil, nil
}

func (f *fakePartials) Upsert(_ context.Context, history *entity.PartialSellHistory) error {
	row := *history
	if existing, ok := f.rows[row.Ticker]; ok {
		row.ID = existing.ID
	} else if row.ID == 0 {
		row.ID = uint(len(f.rows) + 1)
	}
	f.rows[row.Ticker] = row
	return nil
}

type fakeSellEvaluations struct {
	rows []entity.SellEvaluation
}

func (f *fakeSellEvaluations) Create(_ context.Context, eval *entity.SellEvaluation) error {
	f.rows = append(f.rows, *eval)
	return nil
}

type fakeOrderLogs struct {
	mu   sync.Mutex
	rows []entity.OrderLog
}

func (f *fakeOrderLogs) Create(_ context.Context, log *entity.OrderLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *log)
	return nil
}

type fakeRecommendations struct {
	batches [][]entity.CompositeRecommendation
}

func (f *fakeRecommendations) CreateBatch(_ context.Context, recs []entity.CompositeRecommendation) error {
	f.batches = append(f.batches, recs)
	return nil
}

type fakeLocks struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{held: map[string]bool{}}
}

func (f *fakeLocks) Acquire(_ context.Context, ticker string, _ time.Duration) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[ticker] {
		return nil, repository.ErrTickerLocked
	}
	f.held[ticker] = true
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, ticker)
		f.released = append(f.released, ticker)
		return nil
	}, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []interface{}
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

type fakeHistory struct {
	mu   sync.Mutex
	rows []entity.TaskExecutionHistory
}

func (f *fakeHistory) Create(_ context.Context, history *entity.TaskExecutionHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	history.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *history)
	return nil
}

func (f *fakeHistory) FindByID(_ context.Context, id uint) (*entity.TaskExecutionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeHistory) FindAll(_ context.Context, param repository.FindHistoryParam) ([]entity.TaskExecutionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.TaskExecutionHistory
	for i := len(f.rows) - 1; i >= 0; i-- {
		if param.JobName == "" || f.rows[i].JobName == param.JobName {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func (f *fakeHistory) Update(_ context.Context, history *entity.TaskExecutionHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == history.ID {
			f.rows[i] = *history
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *fakeHistory) last() entity.TaskExecutionHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[len(f.rows)-1]
}
