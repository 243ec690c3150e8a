package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"salesadmin/internal/auth"
	"salesadmin/internal/github"
	"salesadmin/internal/model"
	"salesadmin/internal/repository"
	"salesadmin/internal/sales"

	"go.uber.org/zap"
)

const (
	ScheduleSuccess = "success"
	ScheduleFailed  = "failed"
	ScheduleRunning = "running"
	SchedulePending = "pending"
	ScheduleWaiting = "waiting"
	ScheduleNoRuns  = "no_runs"

	scheduleLookback = 10
)

// WorkflowRunner is the subset of the GitHub Actions API the console drives
type WorkflowRunner interface {
	ActionsURL() string
	DispatchWorkflow(ctx context.Context, inputs map[string]string) error
	ListRuns(ctx context.Context, perPage int) ([]github.Run, error)
	ListJobs(ctx context.Context, runID int64) ([]github.Job, error)
	JobLog(ctx context.Context, jobID int64) (string, error)
}

type TriggerRequest struct {
	Date         string   `json:"date"`
	Brands       []string `json:"brands"`
	IsRetryOf    string   `json:"isRetryOf"`
	RetryAttempt int      `json:"retryAttempt"`
}

type TriggerResult struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	WorkflowURL  string              `json:"workflowUrl"`
	ExecutionLog *model.ExecutionLog `json:"executionLog"`
}

type WorkflowStatus struct {
	Status     string       `json:"status"`
	Conclusion string       `json:"conclusion,omitempty"`
	Message    string       `json:"message,omitempty"`
	Run        *github.Run  `json:"run,omitempty"`
	Jobs       []github.Job `json:"jobs"`
}

type ScheduleStatus struct {
	ScheduleStatus    string      `json:"scheduleStatus"`
	StatusMessage     string      `json:"statusMessage"`
	ScheduledTime     string      `json:"scheduledTime"`
	CurrentTime       string      `json:"currentTime"`
	IsBeforeSchedule  bool        `json:"isBeforeSchedule"`
	TodayScheduledRun *github.Run `json:"todayScheduledRun"`
	TodayRunsCount    int         `json:"todayRunsCount"`
	LatestRun         *github.Run `json:"latestRun"`
}

type WorkflowService interface {
	Trigger(ctx context.Context, actor *auth.Claims, req TriggerRequest) (*TriggerResult, error)
	Status(ctx context.Context) (*WorkflowStatus, error)
	ScheduleStatus(ctx context.Context) (*ScheduleStatus, error)
	JobLogs(ctx context.Context, jobID int64) ([]github.LogLine, error)
}

type workflowService struct {
	runner         WorkflowRunner
	logs           repository.ExecutionLogRepository
	audit          AuditService
	txManager      repository.TransactionManager
	publisher      EventPublisher
	scheduleHour   int
	scheduleMinute int
	now            func() time.Time
}

func NewWorkflowService(
	runner WorkflowRunner,
	logs repository.ExecutionLogRepository,
	audit AuditService,
	txManager repository.TransactionManager,
	publisher EventPublisher,
	scheduleHour, scheduleMinute int,
) WorkflowService {
	return &workflowService{
		runner:         runner,
		logs:           logs,
		audit:          audit,
		txManager:      txManager,
		publisher:      publisherOrNoop(publisher),
		scheduleHour:   scheduleHour,
		scheduleMinute: scheduleMinute,
		now:            time.Now,
	}
}

// resolveBrands checks the requested brands against the actor's. An empty
// request means every brand the actor may use; for an admin that is left
// empty so the scraper runs its full list.
func resolveBrands(actor *auth.Claims, requested []string) ([]string, error) {
	if len(requested) == 0 {
		if actor.Role == model.RoleAdmin {
			return []string{}, nil
		}
		if len(actor.Brands) == 0 {
			return nil, ErrBrandDenied
		}
		return actor.Brands, nil
	}

	for _, b := range requested {
		if !slices.Contains(actor.Brands, b) {
			return nil, fmt.Errorf("%w: %s", ErrBrandDenied, b)
		}
	}
	return requested, nil
}

// Trigger dispatches the scraping workflow and records the execution
func (s *workflowService) Trigger(ctx context.Context, actor *auth.Claims, req TriggerRequest) (*TriggerResult, error) {
	if req.Date != "" {
		if _, err := time.Parse(sales.DateLayout, req.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
		}
	}

	brands, err := resolveBrands(actor, req.Brands)
	if err != nil {
		return nil, err
	}

	execLog := &model.ExecutionLog{
		UserID:        actor.UserID(),
		Username:      actor.Username,
		ExecutionType: model.ExecutionManual,
		Brands:        brands,
		Date:          req.Date,
		StartTime:     s.now(),
		WorkflowURL:   s.runner.ActionsURL(),
	}
	if req.IsRetryOf != "" {
		execLog.ExecutionType = model.ExecutionRetry
		execLog.IsRetryOf = req.IsRetryOf
		execLog.RetryAttempt = req.RetryAttempt
	}

	dispatchErr := s.runner.DispatchWorkflow(ctx, map[string]string{
		"date":   req.Date,
		"brands": strings.Join(brands, " "),
	})
	if dispatchErr != nil {
		end := s.now()
		execLog.Status = model.ExecutionFailed
		execLog.EndTime = &end
		execLog.ErrorMessage = dispatchErr.Error()
		if err := s.logs.Create(ctx, execLog); err != nil {
			zap.L().Error("failed to record failed dispatch", zap.Error(err))
		}
		return nil, fmt.Errorf("trigger workflow: %w", dispatchErr)
	}

	execLog.Status = model.ExecutionRunning
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.logs.Create(txCtx, execLog); err != nil {
			return err
		}
		return s.audit.Record(txCtx, actor, model.ActionTriggerWorkflow, execLog.ID.String(), req.Date, map[string]interface{}{
			"brands": brands,
			"date":   req.Date,
		})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("workflow triggered",
		zap.String("user", actor.Username),
		zap.Strings("brands", brands),
		zap.String("date", req.Date),
	)
	s.publisher.Publish(EventWorkflowTriggered, execLog)

	return &TriggerResult{
		Success:      true,
		Message:      "GitHub Actions workflow triggered successfully",
		WorkflowURL:  execLog.WorkflowURL,
		ExecutionLog: execLog,
	}, nil
}

// Status returns the latest run, with jobs once it has started
func (s *workflowService) Status(ctx context.Context) (*WorkflowStatus, error) {
	runs, err := s.runner.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return &WorkflowStatus{Status: ScheduleNoRuns, Message: "No workflow runs found", Jobs: []github.Job{}}, nil
	}

	latest := runs[0]
	res := &WorkflowStatus{
		Status:     latest.Status,
		Conclusion: latest.Conclusion,
		Run:        &latest,
		Jobs:       []github.Job{},
	}

	if latest.Status == "in_progress" || latest.Status == "completed" {
		jobs, err := s.runner.ListJobs(ctx, latest.ID)
		if err != nil {
			zap.L().Warn("could not load workflow jobs", zap.Int64("run_id", latest.ID), zap.Error(err))
		} else {
			res.Jobs = jobs
		}
	}
	return res, nil
}

// ScheduleStatus reports how today's scheduled scraping run went
func (s *workflowService) ScheduleStatus(ctx context.Context) (*ScheduleStatus, error) {
	now := s.now().In(sales.KST)
	y, m, d := now.Date()
	scheduled := time.Date(y, m, d, s.scheduleHour, s.scheduleMinute, 0, 0, sales.KST)
	today := now.Format(sales.DateLayout)

	runs, err := s.runner.ListRuns(ctx, scheduleLookback)
	if err != nil {
		return nil, err
	}

	res := &ScheduleStatus{
		ScheduledTime:    scheduled.Format(time.RFC3339),
		CurrentTime:      now.Format(time.RFC3339),
		IsBeforeSchedule: now.Before(scheduled),
	}
	if len(runs) == 0 {
		res.ScheduleStatus = ScheduleNoRuns
		res.StatusMessage = "실행 기록이 없습니다"
		return res, nil
	}
	res.LatestRun = &runs[0]

	for i := range runs {
		if runs[i].CreatedAt.In(sales.KST).Format(sales.DateLayout) != today {
			continue
		}
		res.TodayRunsCount++
		if runs[i].Event == "schedule" && res.TodayScheduledRun == nil {
			res.TodayScheduledRun = &runs[i]
		}
	}

	switch run := res.TodayScheduledRun; {
	case run != nil && run.Status == "completed" && run.Conclusion == "success":
		res.ScheduleStatus = ScheduleSuccess
		res.StatusMessage = "오늘 아침 자동 스크래핑이 성공적으로 완료되었습니다"
	case run != nil && run.Status == "completed":
		res.ScheduleStatus = ScheduleFailed
		res.StatusMessage = fmt.Sprintf("오늘 아침 자동 스크래핑이 실패했습니다 (%s)", run.Conclusion)
	case run != nil && run.Status == "in_progress":
		res.ScheduleStatus = ScheduleRunning
		res.StatusMessage = "자동 스크래핑이 실행 중입니다..."
	case run != nil:
		res.ScheduleStatus = SchedulePending
		res.StatusMessage = "자동 스크래핑이 대기 중입니다"
	case res.IsBeforeSchedule:
		res.ScheduleStatus = ScheduleWaiting
		res.StatusMessage = fmt.Sprintf("%d시 %d분에 자동 스크래핑이 예정되어 있습니다", s.scheduleHour, s.scheduleMinute)
	default:
		res.ScheduleStatus = SchedulePending
		res.StatusMessage = "오늘 자동 스크래핑이 아직 실행되지 않았습니다"
	}
	return res, nil
}

func (s *workflowService) JobLogs(ctx context.Context, jobID int64) ([]github.LogLine, error) {
	if jobID <= 0 {
		return nil, fmt.Errorf("%w: jobId is required", ErrInvalidRequest)
	}
	raw, err := s.runner.JobLog(ctx, jobID)
	if err != nil {
		return nil, err
	}
	lines := github.ParseJobLog(raw)
	if lines == nil {
		lines = []github.LogLine{}
	}
	return lines, nil
}
