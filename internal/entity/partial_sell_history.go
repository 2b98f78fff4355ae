package entity

import (
	"time"

	"stock-auto-trader/internal/trading"

	"github.com/lib/pq"
)

// PartialSellHistory records which profit stages of a position have been
// sold. It is reset on every buy of the ticker.
type PartialSellHistory struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Ticker          string        `gorm:"uniqueIndex;not null" json:"ticker"`
	PurchasePrice   float64       `json:"purchase_price"`
	InitialQuantity int64         `json:"initial_quantity"`
	CompletedStages pq.Int64Array `gorm:"type:integer[]" json:"completed_stages"`
	IsCompleted     bool          `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PartialSellHistory) TableName() string {
	return "partial_sell_histories"
}

func (p PartialSellHistory) ToState() trading.PartialProfit {
	stages := make([]int, 0, len(p.CompletedStages))
	for _, s := range p.CompletedStages {
		stages = append(stages, int(s))
	}
	return trading.PartialProfit{
		Ticker:          p.Ticker,
		InitialQuantity: p.InitialQuantity,
		CompletedStages: stages,
	}
}

// Apply copies the state onto the row, keeping its identity.
func (p *PartialSellHistory) Apply(s trading.PartialProfit, completed bool) {
	stages := make(pq.Int64Array, 0, len(s.CompletedStages))
	for _, st := range s.CompletedStages {
		stages = append(stages, int64(st))
	}
	p.Ticker = s.Ticker
	p.InitialQuantity = s.InitialQuantity
	p.CompletedStages = stages
	p.IsCompleted = completed
}
