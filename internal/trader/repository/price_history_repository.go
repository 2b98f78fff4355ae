package repository

import (
	"context"

	"stock-auto-trader/internal/entity"

	"gorm.io/gorm"
)

type PriceHistoryRepository interface {
	// GetRecentCloses returns up to limit closing prices, oldest first.
	GetRecentCloses(ctx context.Context, ticker string, limit int) ([]entity.PriceHistory, error)
}

type priceHistoryRepository struct {
	db *gorm.DB
}

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

func (r *priceHistoryRepository) GetRecentCloses(ctx context.Context, ticker string, limit int) ([]entity.PriceHistory, error) {
	var rows []entity.PriceHistory
	if err := r.db.WithContext(ctx).
		Where("ticker = ?", ticker).
		Order("date desc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}
