package strategy

import (
	"context"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trading"
)

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *entity.Job) (string, error)
	GetType() entity.JobType
}

// AutoBuyer runs one buy pass over the ranked candidates.
type AutoBuyer interface {
	Execute(ctx context.Context, dryRun bool) (*dto.BuyRunResult, error)
}

// HoldingsReader lists the positions held at the broker.
type HoldingsReader interface {
	GetHoldings(ctx context.Context) ([]trading.Holding, error)
}

// SellPlanner orders holdings by sell priority.
type SellPlanner interface {
	EvaluateHoldings(ctx context.Context, holdings []trading.Holding) []dto.SellEvaluationResult
}

// TechnicalRefresher recomputes stored technical signals.
type TechnicalRefresher interface {
	Refresh(ctx context.Context) (*dto.TechnicalRefreshResult, error)
}
