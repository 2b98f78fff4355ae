package repository

import (
	"context"

	"stock-auto-trader/internal/entity"

	"gorm.io/gorm"
)

// TaskExecutionHistoryRepository defines the interface for task execution history data operations.
type TaskExecutionHistoryRepository interface {
	Create(ctx context.Context, history *entity.TaskExecutionHistory) error
	FindByID(ctx context.Context, id uint) (*entity.TaskExecutionHistory, error)
	FindAll(ctx context.Context, param FindHistoryParam) ([]entity.TaskExecutionHistory, error)
	Update(ctx context.Context, history *entity.TaskExecutionHistory) error
}

// FindHistoryParam filters and pages history lookups. Zero values disable a filter.
type FindHistoryParam struct {
	JobName string
	Limit   int
	Offset  int
}

// NewTaskExecutionHistoryRepository creates a new GORM-based task execution history repository.
func NewTaskExecutionHistoryRepository(db *gorm.DB) TaskExecutionHistoryRepository {
	return &taskExecutionHistoryRepository{db: db}
}

type taskExecutionHistoryRepository struct {
	db *gorm.DB
}

// Create creates a new task execution history record.
func (r *taskExecutionHistoryRepository) Create(ctx context.Context, history *entity.TaskExecutionHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// FindByID retrieves a task execution history record by its ID.
func (r *taskExecutionHistoryRepository) FindByID(ctx context.Context, id uint) (*entity.TaskExecutionHistory, error) {
	var history entity.TaskExecutionHistory
	if err := r.db.WithContext(ctx).First(&history, id).Error; err != nil {
		return nil, err
	}
	return &history, nil
}

// FindAll retrieves history records, newest first.
func (r *taskExecutionHistoryRepository) FindAll(ctx context.Context, param FindHistoryParam) ([]entity.TaskExecutionHistory, error) {
	var histories []entity.TaskExecutionHistory
	q := r.db.WithContext(ctx).Order("started_at desc")
	if param.JobName != "" {
		q = q.Where("job_name = ?", param.JobName)
	}
	if param.Limit > 0 {
		q = q.Limit(param.Limit)
	}
	if param.Offset > 0 {
		q = q.Offset(param.Offset)
	}
	if err := q.Find(&histories).Error; err != nil {
		return nil, err
	}
	return histories, nil
}

// Update saves every column of an existing record, including nulls.
func (r *taskExecutionHistoryRepository) Update(ctx context.Context, history *entity.TaskExecutionHistory) error {
	return r.db.WithContext(ctx).Save(history).Error
}
