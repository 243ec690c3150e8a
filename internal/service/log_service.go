package service

import (
	"context"
	"errors"
	"time"

	"salesadmin/internal/auth"
	"salesadmin/internal/model"
	"salesadmin/internal/repository"

	"gorm.io/gorm"
)

type AddExecutionLogRequest struct {
	ExecutionType string   `json:"executionType" binding:"required,oneof=manual scheduled api retry"`
	Brands        []string `json:"brands"`
	Date          string   `json:"date"`
	Status        string   `json:"status" binding:"omitempty,oneof=running success failed"`
	WorkflowURL   string   `json:"workflowUrl"`
	ErrorMessage  string   `json:"errorMessage"`
	IsRetryOf     string   `json:"isRetryOf"`
	RetryAttempt  int      `json:"retryAttempt"`
}

type ExecutionLogUpdates struct {
	Status       *string    `json:"status" binding:"omitempty,oneof=running success failed"`
	EndTime      *time.Time `json:"endTime"`
	ErrorMessage *string    `json:"errorMessage"`
	WorkflowURL  *string    `json:"workflowUrl"`
}

type UpdateExecutionLogRequest struct {
	LogID   string              `json:"logId" binding:"required"`
	Updates ExecutionLogUpdates `json:"updates"`
}

type AddScheduleFailureRequest struct {
	ScheduleRunID  string     `json:"scheduleRunId" binding:"required"`
	ScheduleRunURL string     `json:"scheduleRunUrl"`
	FailedAt       *time.Time `json:"failedAt"`
	FailureReason  string     `json:"failureReason"`
}

type ScheduleFailureUpdates struct {
	ResponseStatus    *string `json:"responseStatus" binding:"omitempty,oneof=pending responded response_failed ignored"`
	RetryRunID        *string `json:"retryRunId"`
	RetryRunURL       *string `json:"retryRunUrl"`
	RetryStatus       *string `json:"retryStatus"`
	RetryErrorMessage *string `json:"retryErrorMessage"`
	Notes             *string `json:"notes"`
}

// UpdateScheduleFailureRequest addresses a log by its id or by the run it records
type UpdateScheduleFailureRequest struct {
	LogID         string                 `json:"logId"`
	ScheduleRunID string                 `json:"scheduleRunId"`
	Updates       ScheduleFailureUpdates `json:"updates"`
}

type LogService interface {
	ListExecutionLogs(ctx context.Context) ([]model.ExecutionLog, error)
	AddExecutionLog(ctx context.Context, actor *auth.Claims, req AddExecutionLogRequest) (*model.ExecutionLog, error)
	UpdateExecutionLog(ctx context.Context, req UpdateExecutionLogRequest) (*model.ExecutionLog, error)

	ListScheduleFailures(ctx context.Context) ([]model.ScheduleFailureLog, error)
	// AddScheduleFailure returns the existing log when the run was already recorded
	AddScheduleFailure(ctx context.Context, req AddScheduleFailureRequest) (*model.ScheduleFailureLog, bool, error)
	UpdateScheduleFailure(ctx context.Context, actor *auth.Claims, req UpdateScheduleFailureRequest) (*model.ScheduleFailureLog, error)
}

type logService struct {
	execLogs  repository.ExecutionLogRepository
	failures  repository.ScheduleFailureRepository
	txManager repository.TransactionManager
	now       func() time.Time
}

func NewLogService(execLogs repository.ExecutionLogRepository, failures repository.ScheduleFailureRepository, txManager repository.TransactionManager) LogService {
	return &logService{
		execLogs:  execLogs,
		failures:  failures,
		txManager: txManager,
		now:       time.Now,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLogNotFound
	}
	return err
}

func (s *logService) ListExecutionLogs(ctx context.Context) ([]model.ExecutionLog, error) {
	logs, err := s.execLogs.List(ctx)
	if logs == nil && err == nil {
		logs = []model.ExecutionLog{}
	}
	return logs, err
}

func (s *logService) AddExecutionLog(ctx context.Context, actor *auth.Claims, req AddExecutionLogRequest) (*model.ExecutionLog, error) {
	status := req.Status
	if status == "" {
		status = model.ExecutionRunning
	}
	brands := req.Brands
	if brands == nil {
		brands = []string{}
	}

	log := &model.ExecutionLog{
		ExecutionType: req.ExecutionType,
		Brands:        brands,
		Date:          req.Date,
		Status:        status,
		StartTime:     s.now(),
		ErrorMessage:  req.ErrorMessage,
		WorkflowURL:   req.WorkflowURL,
		IsRetryOf:     req.IsRetryOf,
		RetryAttempt:  req.RetryAttempt,
	}
	if actor != nil {
		log.UserID = actor.UserID()
		log.Username = actor.Username
	}
	if status != model.ExecutionRunning {
		end := log.StartTime
		log.EndTime = &end
	}

	if err := s.execLogs.Create(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// UpdateExecutionLog applies the given fields; finishing a run stamps its end time
func (s *logService) UpdateExecutionLog(ctx context.Context, req UpdateExecutionLogRequest) (*model.ExecutionLog, error) {
	u := req.Updates
	updates := make(map[string]interface{})
	if u.Status != nil {
		updates["status"] = *u.Status
		if *u.Status != model.ExecutionRunning && u.EndTime == nil {
			updates["end_time"] = s.now()
		}
	}
	if u.EndTime != nil {
		updates["end_time"] = *u.EndTime
	}
	if u.ErrorMessage != nil {
		updates["error_message"] = *u.ErrorMessage
	}
	if u.WorkflowURL != nil {
		updates["workflow_url"] = *u.WorkflowURL
	}

	log, err := s.execLogs.Update(ctx, req.LogID, updates)
	if err != nil {
		return nil, notFound(err)
	}
	return log, nil
}

func (s *logService) ListScheduleFailures(ctx context.Context) ([]model.ScheduleFailureLog, error) {
	logs, err := s.failures.List(ctx)
	if logs == nil && err == nil {
		logs = []model.ScheduleFailureLog{}
	}
	return logs, err
}

func (s *logService) AddScheduleFailure(ctx context.Context, req AddScheduleFailureRequest) (*model.ScheduleFailureLog, bool, error) {
	var (
		log     *model.ScheduleFailureLog
		created bool
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.failures.GetByRunID(txCtx, req.ScheduleRunID)
		if err == nil {
			log = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		failedAt := s.now()
		if req.FailedAt != nil {
			failedAt = *req.FailedAt
		}
		log = &model.ScheduleFailureLog{
			ScheduleRunID:  req.ScheduleRunID,
			ScheduleRunURL: req.ScheduleRunURL,
			FailedAt:       failedAt,
			FailureReason:  req.FailureReason,
			ResponseStatus: model.ResponsePending,
		}
		created = true
		return s.failures.Create(txCtx, log)
	})
	if err != nil {
		return nil, false, err
	}
	return log, created, nil
}

// UpdateScheduleFailure records how staff handled a failed run. Leaving the
// pending state stamps who responded and when.
func (s *logService) UpdateScheduleFailure(ctx context.Context, actor *auth.Claims, req UpdateScheduleFailureRequest) (*model.ScheduleFailureLog, error) {
	var (
		log *model.ScheduleFailureLog
		err error
	)
	switch {
	case req.LogID != "":
		log, err = s.failures.GetByID(ctx, req.LogID)
	case req.ScheduleRunID != "":
		log, err = s.failures.GetByRunID(ctx, req.ScheduleRunID)
	default:
		return nil, ErrInvalidRequest
	}
	if err != nil {
		return nil, notFound(err)
	}

	u := req.Updates
	updates := make(map[string]interface{})
	if u.ResponseStatus != nil {
		updates["response_status"] = *u.ResponseStatus
		if *u.ResponseStatus != model.ResponsePending {
			updates["responded_at"] = s.now()
			if actor != nil {
				updates["responded_by"] = actor.Username
			}
		}
	}
	for column, v := range map[string]*string{
		"retry_run_id":        u.RetryRunID,
		"retry_run_url":       u.RetryRunURL,
		"retry_status":        u.RetryStatus,
		"retry_error_message": u.RetryErrorMessage,
		"notes":               u.Notes,
	} {
		if v != nil {
			updates[column] = *v
		}
	}

	if len(updates) == 0 {
		return log, nil
	}
	if err := s.failures.Update(ctx, log, updates); err != nil {
		return nil, err
	}
	return log, nil
}
