package repository

import (
	"context"

	"stock-auto-trader/internal/entity"

	"gorm.io/gorm"
)

type RecommendationRepository interface {
	CreateBatch(ctx context.Context, recs []entity.CompositeRecommendation) error
}

type recommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) CreateBatch(ctx context.Context, recs []entity.CompositeRecommendation) error {
	if len(recs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(recs, 100).Error
}
