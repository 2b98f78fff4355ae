package repository

import (
	"context"
	"errors"

	"stock-auto-trader/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PartialSellHistoryRepository interface {
	// FindByTicker returns nil without error when the position has no history.
	FindByTicker(ctx context.Context, ticker string) (*entity.PartialSellHistory, error)
	// Upsert inserts or replaces the history for its ticker.
	Upsert(ctx context.Context, history *entity.PartialSellHistory) error
}

type partialSellHistoryRepository struct {
	db *gorm.DB
}

func NewPartialSellHistoryRepository(db *gorm.DB) PartialSellHistoryRepository {
	return &partialSellHistoryRepository{db: db}
}

func (r *partialSellHistoryRepository) FindByTicker(ctx context.Context, ticker string) (*entity.PartialSellHistory, error) {
	var history entity.PartialSellHistory
	err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&history).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *partialSellHistoryRepository) Upsert(ctx context.Context, history *entity.PartialSellHistory) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"purchase_price", "initial_quantity", "completed_stages", "is_completed", "updated_at",
		}),
	}).Create(history).Error
}
