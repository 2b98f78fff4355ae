package entity

import (
	"time"

	"stock-auto-trader/internal/trading"
)

// StockPrediction is written by the external prediction model.
type StockPrediction struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Ticker               string    `gorm:"not null;index" json:"ticker"`
	AccuracyPct          float64   `json:"accuracy_pct"`
	RiseProbabilityPct   float64   `json:"rise_probability_pct"`
	LastActualPrice      float64   `json:"last_actual_price"`
	PredictedFuturePrice float64   `json:"predicted_future_price"`
	PredictedAt          time.Time `gorm:"not null;index" json:"predicted_at"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StockPrediction) TableName() string {
	return "stock_predictions"
}

func (p StockPrediction) ToSignal() trading.PredictionSignal {
	sig := trading.NewPredictionSignal(p.Ticker, p.AccuracyPct, p.RiseProbabilityPct, p.LastActualPrice, p.PredictedFuturePrice)
	sig.PredictedAt = p.PredictedAt
	return sig
}
