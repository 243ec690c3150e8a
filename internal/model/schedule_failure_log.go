package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ResponsePending        = "pending"
	ResponseResponded      = "responded"
	ResponseResponseFailed = "response_failed"
	ResponseIgnored        = "ignored"
)

// MaxScheduleFailureLogs is how many schedule failure logs are retained
const MaxScheduleFailureLogs = 50

// ScheduleFailureLog tracks a failed scheduled scraping run and how staff responded to it
type ScheduleFailureLog struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ScheduleRunID     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"schedule_run_id"`
	ScheduleRunURL    string     `gorm:"type:varchar(512)" json:"schedule_run_url"`
	FailedAt          time.Time  `gorm:"not null;index" json:"failed_at"`
	FailureReason     string     `gorm:"type:text" json:"failure_reason,omitempty"`
	ResponseStatus    string     `gorm:"type:varchar(20);not null;default:'pending'" json:"response_status"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`
	RespondedBy       string     `gorm:"type:varchar(255)" json:"responded_by,omitempty"`
	RetryRunID        string     `gorm:"type:varchar(64)" json:"retry_run_id,omitempty"`
	RetryRunURL       string     `gorm:"type:varchar(512)" json:"retry_run_url,omitempty"`
	RetryStatus       string     `gorm:"type:varchar(20)" json:"retry_status,omitempty"`
	RetryErrorMessage string     `gorm:"type:text" json:"retry_error_message,omitempty"`
	Notes             string     `gorm:"type:text" json:"notes,omitempty"`
}
