package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateUser       = "CREATE_USER"
	ActionInviteUser       = "INVITE_USER"
	ActionUpdateUserRole   = "UPDATE_USER_ROLE"
	ActionUpdateUserBrands = "UPDATE_USER_BRANDS"
	ActionResetPassword    = "RESET_PASSWORD"
	ActionChangePassword   = "CHANGE_PASSWORD"
	ActionDeleteUser       = "DELETE_USER"

	ActionTriggerWorkflow = "TRIGGER_WORKFLOW"
	ActionSendSlackReport = "SEND_SLACK_REPORT"
	ActionCafe24Authorize = "CAFE24_AUTHORIZE"
)

// AuditLog tracks who changed what and when
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for scheduled or system actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
