package entity

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderStatus string

const (
	OrderStatusAccepted OrderStatus = "accepted"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusDryRun   OrderStatus = "dry_run"
)

// OrderLog records every order the trader attempted.
type OrderLog struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Ticker         string          `gorm:"not null;index" json:"ticker"`
	Exchange       string          `json:"exchange"`
	Side           OrderSide       `gorm:"not null" json:"side"`
	Quantity       int64           `gorm:"not null" json:"quantity"`
	Price          decimal.Decimal `gorm:"type:numeric(18,4)" json:"price"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,4)" json:"amount"`
	Status         OrderStatus     `gorm:"not null" json:"status"`
	BrokerOrderID  string          `json:"broker_order_id"`
	Message        string          `json:"message"`
	Reasons        pq.StringArray  `gorm:"type:text[]" json:"reasons"`
	CompositeScore float64         `json:"composite_score"`
	Priority       int             `json:"priority"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (OrderLog) TableName() string {
	return "order_logs"
}
