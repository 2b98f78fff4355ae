package entity

import (
	"time"

	"gorm.io/gorm"
)

// Stock is a ticker in the trading universe.
type Stock struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Ticker      string         `gorm:"uniqueIndex;not null" json:"ticker"`
	Name        string         `gorm:"not null" json:"name"`
	Exchange    string         `gorm:"not null" json:"exchange"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	IsETF       bool           `gorm:"not null;default:false" json:"is_etf"`
	IsLeveraged bool           `gorm:"not null;default:false" json:"is_leveraged"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Stock) TableName() string {
	return "stocks"
}
