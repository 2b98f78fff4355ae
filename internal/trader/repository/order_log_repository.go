package repository

import (
	"context"

	"stock-auto-trader/internal/entity"

	"gorm.io/gorm"
)

type OrderLogRepository interface {
	Create(ctx context.Context, log *entity.OrderLog) error
}

type orderLogRepository struct {
	db *gorm.DB
}

func NewOrderLogRepository(db *gorm.DB) OrderLogRepository {
	return &orderLogRepository{db: db}
}

func (r *orderLogRepository) Create(ctx context.Context, log *entity.OrderLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
