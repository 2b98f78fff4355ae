package repository

import (
	"context"
	"errors"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trading"

	"gorm.io/gorm"
)

type StocksRepository interface {
	GetActiveStocks(ctx context.Context) ([]entity.Stock, error)
	FindByTicker(ctx context.Context, ticker string) (*entity.Stock, error)
}

type stocksRepository struct {
	db *gorm.DB
}

func NewStocksRepository(db *gorm.DB) StocksRepository {
	return &stocksRepository{db: db}
}

func (s *stocksRepository) GetActiveStocks(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("ticker").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

// FindByTicker returns nil without error when the ticker is unknown.
func (s *stocksRepository) FindByTicker(ctx context.Context, ticker string) (*entity.Stock, error) {
	var stock entity.Stock
	err := s.db.WithContext(ctx).Where("ticker = ?", trading.NormalizeTicker(ticker)).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}
