package service

import (
	"context"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/pkg/logger"
)

const defaultHistoryLimit = 50

// ExecutionHistoryService defines the interface for reading job run history.
type ExecutionHistoryService interface {
	GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error)
	GetAllExecutionHistories(ctx context.Context, jobName string, limit, offset int) ([]*dto.ExecutionHistoryResponse, error)
}

// NewExecutionHistoryService creates a new execution history service.
func NewExecutionHistoryService(historyRepo repository.TaskExecutionHistoryRepository, logger *logger.Logger) ExecutionHistoryService {
	return &executionHistoryService{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

type executionHistoryService struct {
	historyRepo repository.TaskExecutionHistoryRepository
	logger      *logger.Logger
}

// GetExecutionHistoryByID retrieves an execution history record by its ID.
func (s *executionHistoryService) GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error) {
	history, err := s.historyRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find execution history", logger.ErrorField(err), logger.Field("history_id", id))
		return nil, err
	}
	return toExecutionHistoryResponse(history), nil
}

// GetAllExecutionHistories lists runs newest first, optionally for one job.
func (s *executionHistoryService) GetAllExecutionHistories(ctx context.Context, jobName string, limit, offset int) ([]*dto.ExecutionHistoryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	histories, err := s.historyRepo.FindAll(ctx, repository.FindHistoryParam{JobName: jobName, Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("Failed to get all execution histories", logger.ErrorField(err))
		return nil, err
	}

	historyResponses := make([]*dto.ExecutionHistoryResponse, 0, len(histories))
	for i := range histories {
		historyResponses = append(historyResponses, toExecutionHistoryResponse(&histories[i]))
	}

	return historyResponses, nil
}

func toExecutionHistoryResponse(history *entity.TaskExecutionHistory) *dto.ExecutionHistoryResponse {
	var duration int64
	if history.CompletedAt.Valid {
		duration = history.CompletedAt.Time.Sub(history.StartedAt).Milliseconds()
	}

	return &dto.ExecutionHistoryResponse{
		ID:         history.ID,
		JobName:    history.JobName,
		JobType:    string(history.JobType),
		Trigger:    history.Trigger,
		Status:     string(history.Status),
		ExecutedAt: history.StartedAt,
		Duration:   duration,
		Output:     history.Output.String,
		Error:      history.ErrorMessage.String,
	}
}
