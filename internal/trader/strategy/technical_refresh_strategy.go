package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/pkg/logger"
)

type TechnicalRefreshStrategy struct {
	logger    *logger.Logger
	refresher TechnicalRefresher
}

func NewTechnicalRefreshStrategy(log *logger.Logger, refresher TechnicalRefresher) JobExecutionStrategy {
	return &TechnicalRefreshStrategy{logger: log, refresher: refresher}
}

func (s *TechnicalRefreshStrategy) GetType() entity.JobType {
	return entity.JobTypeTechnicalRefresh
}

func (s *TechnicalRefreshStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	result, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Technical refresh failed", logger.ErrorField(err), logger.StringField("job", job.Name))
		return "", fmt.Errorf("technical refresh: %w", err)
	}

	output, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(output), nil
}
