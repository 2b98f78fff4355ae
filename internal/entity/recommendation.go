package entity

import (
	"time"

	"gorm.io/datatypes"
)

// CompositeRecommendation is a snapshot of a scoring run, kept for audit.
type CompositeRecommendation struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Ticker         string         `gorm:"not null;index" json:"ticker"`
	TechScore      float64        `json:"tech_score"`
	CompositeScore float64        `json:"composite_score"`
	Priority       int            `json:"priority"`
	Decision       string         `json:"buy_decision"`
	Eligible       bool           `json:"eligible"`
	Rationale      string         `json:"rationale"`
	Data           datatypes.JSON `gorm:"type:jsonb" json:"data"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CompositeRecommendation) TableName() string {
	return "composite_recommendations"
}
