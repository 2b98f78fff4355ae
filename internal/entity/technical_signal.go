package entity

import (
	"time"

	"stock-auto-trader/internal/trading"
)

type TechnicalSignal struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Ticker        string    `gorm:"not null;uniqueIndex:idx_technical_signals_ticker_date" json:"ticker"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:idx_technical_signals_ticker_date" json:"date"`
	SMA20         float64   `gorm:"column:sma20" json:"sma20"`
	SMA50         float64   `gorm:"column:sma50" json:"sma50"`
	GoldenCross   bool      `json:"golden_cross"`
	RSI           float64   `gorm:"column:rsi" json:"rsi"`
	MACD          float64   `gorm:"column:macd" json:"macd"`
	SignalLine    float64   `json:"signal_line"`
	MACDBuySignal bool      `gorm:"column:macd_buy_signal" json:"macd_buy_signal"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TechnicalSignal) TableName() string {
	return "technical_signals"
}

// ToSignal rebuilds the decision-engine value. Flags are re-derived from the
// stored indicator values.
func (t TechnicalSignal) ToSignal() trading.TechnicalSignal {
	return trading.NewTechnicalSignal(t.Ticker, t.Date, t.SMA20, t.SMA50, t.RSI, t.MACD, t.SignalLine)
}

func NewTechnicalSignalEntity(s trading.TechnicalSignal) *TechnicalSignal {
	return &TechnicalSignal{
		Ticker:        s.Ticker,
		Date:          s.Date,
		SMA20:         s.SMA20,
		SMA50:         s.SMA50,
		GoldenCross:   s.GoldenCross,
		RSI:           s.RSI,
		MACD:          s.MACD,
		SignalLine:    s.SignalLine,
		MACDBuySignal: s.MACDBuySignal,
	}
}
