package repository

import (
	"context"
	"errors"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trading"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SignalRepository reads the latest per-ticker signals. A nil result with a
// nil error means no signal exists for the ticker.
type SignalRepository interface {
	LatestTechnical(ctx context.Context, ticker string) (*trading.TechnicalSignal, error)
	LatestPrediction(ctx context.Context, ticker string) (*trading.PredictionSignal, error)
	LatestSentiment(ctx context.Context, ticker string) (*trading.SentimentSignal, error)
	SaveTechnical(ctx context.Context, sig trading.TechnicalSignal) error
}

type signalRepository struct {
	db *gorm.DB
}

// NewSignalRepository returns the postgres-backed signal store.
func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) LatestTechnical(ctx context.Context, ticker string) (*trading.TechnicalSignal, error) {
	var row entity.TechnicalSignal
	if err := r.latest(ctx, &row, ticker, "date desc"); err != nil || row.ID == 0 {
		return nil, err
	}
	sig := row.ToSignal()
	return &sig, nil
}

func (r *signalRepository) LatestPrediction(ctx context.Context, ticker string) (*trading.PredictionSignal, error) {
	var row entity.StockPrediction
	if err := r.latest(ctx, &row, ticker, "predicted_at desc"); err != nil || row.ID == 0 {
		return nil, err
	}
	sig := row.ToSignal()
	return &sig, nil
}

func (r *signalRepository) LatestSentiment(ctx context.Context, ticker string) (*trading.SentimentSignal, error) {
	var row entity.SentimentAnalysis
	if err := r.latest(ctx, &row, ticker, "calculated_at desc"); err != nil || row.ID == 0 {
		return nil, err
	}
	sig := row.ToSignal()
	return &sig, nil
}

// SaveTechnical upserts on (ticker, date).
func (r *signalRepository) SaveTechnical(ctx context.Context, sig trading.TechnicalSignal) error {
	row := entity.NewTechnicalSignalEntity(sig)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"sma20", "sma50", "golden_cross", "rsi", "macd", "signal_line", "macd_buy_signal"}),
	}).Create(row).Error
}

func (r *signalRepository) latest(ctx context.Context, dest interface{}, ticker, order string) error {
	err := r.db.WithContext(ctx).Where("ticker = ?", ticker).Order(order).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
