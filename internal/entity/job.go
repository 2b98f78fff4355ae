package entity

import "encoding/json"

// JobType selects the strategy that runs a job.
type JobType string

const (
	JobTypeAutoBuy          JobType = "AUTO_BUY"
	JobTypeSellMonitor      JobType = "SELL_MONITOR"
	JobTypeTechnicalRefresh JobType = "TECHNICAL_REFRESH"
)

// Job is a scheduled unit of work declared in configuration. MarketHoursOnly
// skips ticks outside the regular US session.
type Job struct {
	Name            string          `mapstructure:"name" json:"name"`
	Type            JobType         `mapstructure:"type" json:"type"`
	CronExpression  string          `mapstructure:"cron" json:"cron"`
	Timeout         int             `mapstructure:"timeout" json:"timeout"`
	MarketHoursOnly bool            `mapstructure:"market_hours_only" json:"market_hours_only"`
	DryRun          bool            `mapstructure:"dry_run" json:"dry_run"`
	Payload         json.RawMessage `mapstructure:"-" json:"payload,omitempty"`
}
