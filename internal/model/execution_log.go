package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ExecutionManual    = "manual"
	ExecutionScheduled = "scheduled"
	ExecutionAPI       = "api"
	ExecutionRetry     = "retry"

	ExecutionRunning = "running"
	ExecutionSuccess = "success"
	ExecutionFailed  = "failed"
)

// MaxExecutionLogs is how many execution logs are retained
const MaxExecutionLogs = 100

// ExecutionLog records a scraping run started from the console or a schedule
type ExecutionLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        string     `gorm:"type:varchar(64);index" json:"user_id"`
	Username      string     `gorm:"type:varchar(255)" json:"username"`
	ExecutionType string     `gorm:"type:varchar(20);not null" json:"execution_type"`
	Brands        []string   `gorm:"type:jsonb;serializer:json" json:"brands"`
	Date          string     `gorm:"type:varchar(10)" json:"date,omitempty"`
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	StartTime     time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	ErrorMessage  string     `gorm:"type:text" json:"error_message,omitempty"`
	WorkflowURL   string     `gorm:"type:varchar(512)" json:"workflow_url,omitempty"`
	IsRetryOf     string     `gorm:"type:varchar(64)" json:"is_retry_of,omitempty"`
	RetryAttempt  int        `json:"retry_attempt,omitempty"`
}
