package repository

import (
	"context"

	"stock-auto-trader/internal/entity"

	"gorm.io/gorm"
)

type SellEvaluationRepository interface {
	Create(ctx context.Context, eval *entity.SellEvaluation) error
}

type sellEvaluationRepository struct {
	db *gorm.DB
}

func NewSellEvaluationRepository(db *gorm.DB) SellEvaluationRepository {
	return &sellEvaluationRepository{db: db}
}

func (r *sellEvaluationRepository) Create(ctx context.Context, eval *entity.SellEvaluation) error {
	return r.db.WithContext(ctx).Create(eval).Error
}
