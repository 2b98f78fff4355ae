package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/pkg/logger"
)

type AutoBuyStrategy struct {
	logger *logger.Logger
	buyer  AutoBuyer
}

func NewAutoBuyStrategy(log *logger.Logger, buyer AutoBuyer) JobExecutionStrategy {
	return &AutoBuyStrategy{logger: log, buyer: buyer}
}

func (s *AutoBuyStrategy) GetType() entity.JobType {
	return entity.JobTypeAutoBuy
}

func (s *AutoBuyStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	result, err := s.buyer.Execute(ctx, job.DryRun)
	if err != nil {
		s.logger.ErrorContext(ctx, "Auto buy failed", logger.ErrorField(err), logger.StringField("job", job.Name))
		return "", fmt.Errorf("auto buy: %w", err)
	}

	output, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(output), nil
}
