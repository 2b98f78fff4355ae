package entity

import (
	"time"

	"stock-auto-trader/internal/trading"
)

type TrailingStop struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Ticker           string    `gorm:"uniqueIndex;not null" json:"ticker"`
	PurchasePrice    float64   `json:"purchase_price"`
	HighestPrice     float64   `json:"highest_price"`
	HighestPriceAt   time.Time `json:"highest_price_at"`
	DistancePct      float64   `json:"distance_pct"`
	DynamicStopPrice float64   `json:"dynamic_stop_price"`
	IsLeveraged      bool      `json:"is_leveraged"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TrailingStop) TableName() string {
	return "trailing_stops"
}

func (t TrailingStop) ToState() trading.TrailingStop {
	return trading.TrailingStop{
		Ticker:           t.Ticker,
		PurchasePrice:    t.PurchasePrice,
		HighestPrice:     t.HighestPrice,
		HighestPriceAt:   t.HighestPriceAt,
		DistancePct:      t.DistancePct,
		DynamicStopPrice: t.DynamicStopPrice,
		Leveraged:        t.IsLeveraged,
		Active:           t.IsActive,
	}
}

// Apply copies the state onto the row, keeping its identity.
func (t *TrailingStop) Apply(s trading.TrailingStop) {
	t.Ticker = s.Ticker
	t.PurchasePrice = s.PurchasePrice
	t.HighestPrice = s.HighestPrice
	t.HighestPriceAt = s.HighestPriceAt
	t.DistancePct = s.DistancePct
	t.DynamicStopPrice = s.DynamicStopPrice
	t.IsLeveraged = s.Leveraged
	t.IsActive = s.Active
}
