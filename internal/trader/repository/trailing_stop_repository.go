package repository

import (
	"context"
	"errors"

	"stock-auto-trader/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrailingStopRepository interface {
	// FindByTicker returns nil without error when no stop is tracked.
	FindByTicker(ctx context.Context, ticker string) (*entity.TrailingStop, error)
	// Upsert inserts or replaces the stop for its ticker.
	Upsert(ctx context.Context, stop *entity.TrailingStop) error
	Deactivate(ctx context.Context, ticker string) error
}

type trailingStopRepository struct {
	db *gorm.DB
}

func NewTrailingStopRepository(db *gorm.DB) TrailingStopRepository {
	return &trailingStopRepository{db: db}
}

func (r *trailingStopRepository) FindByTicker(ctx context.Context, ticker string) (*entity.TrailingStop, error) {
	var stop entity.TrailingStop
	err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&stop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

func (r *trailingStopRepository) Upsert(ctx context.Context, stop *entity.TrailingStop) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"purchase_price", "highest_price", "highest_price_at", "distance_pct",
			"dynamic_stop_price", "is_leveraged", "is_active", "updated_at",
		}),
	}).Create(stop).Error
}

func (r *trailingStopRepository) Deactivate(ctx context.Context, ticker string) error {
	return r.db.WithContext(ctx).Model(&entity.TrailingStop{}).
		Where("ticker = ?", ticker).
		Update("is_active", false).Error
}
