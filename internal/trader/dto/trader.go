package dto

import (
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trading"

	"github.com/shopspring/decimal"
)

// BuyCandidatesResponse is the selector output against live cash and holdings.
type BuyCandidatesResponse struct {
	AvailableCash decimal.Decimal       `json:"available_cash"`
	PerStockCap   decimal.Decimal       `json:"per_stock_cap"`
	MaxCount      int                   `json:"max_count"`
	HeldTickers   []string              `json:"held_tickers"`
	Candidates    []trading.OrderIntent `json:"candidates"`
}

// SellEvaluationResult wraps a decision or the reason it could not be made.
type SellEvaluationResult struct {
	Ticker   string                `json:"ticker"`
	Status   string                `json:"status"`
	Decision *trading.SellDecision `json:"decision,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// BuyRunResult summarizes one auto-buy run.
type BuyRunResult struct {
	DryRun     bool            `json:"dry_run"`
	Candidates int             `json:"candidates"`
	Orders     []OrderOutcome  `json:"orders"`
	Skipped    []SkippedTicker `json:"skipped,omitempty"`
}

// SellRunResult summarizes one sell-monitor run.
type SellRunResult struct {
	Queued  int             `json:"queued"`
	Skipped []SkippedTicker `json:"skipped,omitempty"`
}

type OrderOutcome struct {
	Ticker      string           `json:"ticker"`
	Side        entity.OrderSide `json:"side"`
	Quantity    int64            `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Status      string           `json:"status"`
	OrderNumber string           `json:"order_number,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// TechnicalRefreshResult summarizes one indicator refresh run.
type TechnicalRefreshResult struct {
	Updated int             `json:"updated"`
	Failed  []SkippedTicker `json:"failed,omitempty"`
}

// SchedulerStatusResponse is the scheduler state exposed over HTTP.
type SchedulerStatusResponse struct {
	Enabled bool        `json:"enabled"`
	Jobs    []JobStatus `json:"jobs"`
}

type JobStatus struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Cron       string     `json:"cron"`
	Running    bool       `json:"running"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
}

// RunJobRequest is the optional body of a manual job run.
type RunJobRequest struct {
	DryRun bool `json:"dry_run"`
}

// ExecutionHistoryResponse is the DTO for API responses containing execution history details.
type ExecutionHistoryResponse struct {
	ID         uint      `json:"id"`
	JobName    string    `json:"job_name"`
	JobType    string    `json:"job_type"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	ExecutedAt time.Time `json:"executed_at"`
	Duration   int64     `json:"duration_ms"`
	Output     string    `json:"output"`
	Error      string    `json:"error,omitempty"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OrderEvent is published to kafka for every order attempt.
type OrderEvent struct {
	EventID        string           `json:"event_id"`
	Ticker         string           `json:"ticker"`
	Exchange       string           `json:"exchange"`
	Side           entity.OrderSide `json:"side"`
	Quantity       int64            `json:"quantity"`
	Price          decimal.Decimal  `json:"price"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         string           `json:"status"`
	BrokerOrderID  string           `json:"broker_order_id,omitempty"`
	Message        string           `json:"message,omitempty"`
	Reasons        []string         `json:"reasons,omitempty"`
	CompositeScore float64          `json:"composite_score,omitempty"`
	Priority       int              `json:"priority"`
	OccurredAt     time.Time        `json:"occurred_at"`
}
