package entity

import "time"

// PriceHistory is one daily bar.
type PriceHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Ticker    string    `gorm:"not null;uniqueIndex:idx_price_history_ticker_date" json:"ticker"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_price_history_ticker_date" json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `gorm:"not null" json:"close"`
	Volume    int64     `json:"volume"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PriceHistory) TableName() string {
	return "price_history"
}
