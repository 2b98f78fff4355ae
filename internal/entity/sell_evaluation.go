package entity

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type SellEvaluationStatus string

const (
	SellEvaluationEvaluated        SellEvaluationStatus = "evaluated"
	SellEvaluationPriceUnavailable SellEvaluationStatus = "price_unavailable"
)

type SellEvaluation struct {
	ID                 uint                 `gorm:"primaryKey" json:"id"`
	Ticker             string               `gorm:"not null;index" json:"ticker"`
	Status             SellEvaluationStatus `gorm:"not null" json:"status"`
	PurchasePrice      float64              `json:"purchase_price"`
	CurrentPrice       sql.NullFloat64      `json:"current_price"`
	PriceChangePct     sql.NullFloat64      `json:"price_change_pct"`
	Quantity           int64                `json:"quantity"`
	ShouldSell         bool                 `json:"should_sell"`
	Priority           int                  `json:"priority"`
	Reasons            pq.StringArray       `gorm:"type:text[]" json:"reasons"`
	TechnicalSellCount int                  `json:"technical_sell_count"`
	ErrorMessage       sql.NullString       `json:"error_message"`
	EvaluatedAt        time.Time            `gorm:"not null;index" json:"evaluated_at"`
}

func (SellEvaluation) TableName() string {
	return "sell_evaluations"
}
