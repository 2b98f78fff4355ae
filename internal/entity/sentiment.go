package entity

import (
	"time"

	"stock-auto-trader/internal/trading"
)

// SentimentAnalysis is written by the external sentiment service.
type SentimentAnalysis struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Ticker       string    `gorm:"uniqueIndex;not null" json:"ticker"`
	AvgScore     float64   `gorm:"column:average_sentiment_score" json:"average_sentiment_score"`
	ArticleCount int       `json:"article_count"`
	CalculatedAt time.Time `json:"calculated_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SentimentAnalysis) TableName() string {
	return "sentiment_analysis"
}

func (s SentimentAnalysis) ToSignal() trading.SentimentSignal {
	return trading.SentimentSignal{
		Ticker:       trading.NormalizeTicker(s.Ticker),
		AvgScore:     s.AvgScore,
		ArticleCount: s.ArticleCount,
		CalculatedAt: s.CalculatedAt,
	}
}
