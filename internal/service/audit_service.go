package service

import (
	"context"
	"encoding/json"

	"salesadmin/internal/auth"
	"salesadmin/internal/model"
	"salesadmin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, filter repository.AuditFilter, offset, limit int) ([]AuditLogResponse, int64, error)
	// Record writes an entry, inside the caller's transaction when ctx carries one
	Record(ctx context.Context, actor *auth.Claims, action, entityID, entityName string, details interface{}) error
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, actor *auth.Claims, action, entityID, entityName string, details interface{}) error {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    "{}",
	}
	if actor != nil {
		if id, err := uuid.Parse(actor.UserID()); err == nil {
			entry.UserID = &id
		}
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = string(raw)
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		zap.L().Error("audit log write failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

// GetAuditLogs returns newest entries first with the acting user resolved
func (s *auditService) GetAuditLogs(ctx context.Context, filter repository.AuditFilter, offset, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
