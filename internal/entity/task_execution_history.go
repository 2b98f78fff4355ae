package entity

import (
	"database/sql"
	"time"
)

type TaskStatus string

const (
	StatusRunning   TaskStatus = "RUNNING"
	StatusCompleted TaskStatus = "COMPLETED"
	StatusFailed    TaskStatus = "FAILED"
	StatusSkipped   TaskStatus = "SKIPPED"
)

type TaskExecutionHistory struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	JobName      string         `gorm:"not null;index" json:"job_name"`
	JobType      JobType        `gorm:"not null" json:"job_type"`
	Trigger      string         `gorm:"not null" json:"trigger"`
	Status       TaskStatus     `gorm:"not null" json:"status"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Output       sql.NullString `json:"output"`
	ErrorMessage sql.NullString `json:"error_message"`
}

func (TaskExecutionHistory) TableName() string {
	return "task_execution_histories"
}
