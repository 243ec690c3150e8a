package service

import (
	"context"
	"sync"
	"time"

	"salesadmin/internal/auth"
	"salesadmin/internal/cafe24"
	"salesadmin/internal/github"
	"salesadmin/internal/model"
	"salesadmin/internal/repository"
	"salesadmin/internal/slack"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeTx struct{ calls int }

func (f *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type auditEntry struct {
	Actor    string
	Action   string
	EntityID string
	Details  interface{}
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) Record(_ context.Context, actor *auth.Claims, action, entityID, _ string, details interface{}) error {
	name := ""
	if actor != nil {
		name = actor.Username
	}
	f.entries = append(f.entries, auditEntry{Actor: name, Action: action, EntityID: entityID, Details: details})
	return nil
}

func (f *fakeAudit) GetAuditLogs(context.Context, repository.AuditFilter, int, int) ([]AuditLogResponse, int64, error) {
	return nil, 0, nil
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[uuid.MustParse(id)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, uuid.MustParse(id))
	return nil
}

type fakeRefreshRepo struct {
	tokens map[string]*model.RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *fakeRefreshRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeRefreshRepo) GetValid(_ context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	t, ok := r.tokens[token]
	if !ok || !t.ExpiresAt.After(now) {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeRefreshRepo) DeleteByToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeRefreshRepo) DeleteByUser(_ context.Context, userID string) error {
	for k, t := range r.tokens {
		if t.UserID.String() == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

type fakeExecRepo struct {
	logs []*model.ExecutionLog
	err  error
}

func (r *fakeExecRepo) List(context.Context) ([]model.ExecutionLog, error) {
	out := make([]model.ExecutionLog, 0, len(r.logs))
	for i := len(r.logs) - 1; i >= 0; i-- {
		out = append(out, *r.logs[i])
	}
	return out, nil
}

func (r *fakeExecRepo) Create(_ context.Context, log *model.ExecutionLog) error {
	if r.err != nil {
		return r.err
	}
	log.ID = uuid.New()
	r.logs = append(r.logs, log)
	if len(r.logs) > model.MaxExecutionLogs {
		r.logs = r.logs[len(r.logs)-model.MaxExecutionLogs:]
	}
	return nil
}

func (r *fakeExecRepo) Update(_ context.Context, id string, updates map[string]interface{}) (*model.ExecutionLog, error) {
	for _, l := range r.logs {
		if l.ID.String() != id {
			continue
		}
		for k, v := range updates {
			switch k {
			case "status":
				l.Status = v.(string)
			case "end_time":
				t := v.(time.Time)
				l.EndTime = &t
			case "error_message":
				l.ErrorMessage = v.(string)
			case "workflow_url":
				l.WorkflowURL = v.(string)
			}
		}
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeFailureRepo struct {
	logs []*model.ScheduleFailureLog
}

func (r *fakeFailureRepo) List(context.Context) ([]model.ScheduleFailureLog, error) {
	out := make([]model.ScheduleFailureLog, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, *l)
	}
	return out, nil
}

func (r *fakeFailureRepo) GetByID(_ context.Context, id string) (*model.ScheduleFailureLog, error) {
	for _, l := range r.logs {
		if l.ID.String() == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFailureRepo) GetByRunID(_ context.Context, runID string) (*model.ScheduleFailureLog, error) {
	for _, l := range r.logs {
		if l.ScheduleRunID == runID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFailureRepo) Create(_ context.Context, log *model.ScheduleFailureLog) error {
	log.ID = uuid.New()
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *fakeFailureRepo) Update(_ context.Context, log *model.ScheduleFailureLog, updates map[string]interface{}) error {
	for _, l := range r.logs {
		if l.ID != log.ID {
			continue
		}
		for k, v := range updates {
			switch k {
			case "response_status":
				l.ResponseStatus = v.(string)
			case "responded_at":
				t := v.(time.Time)
				l.RespondedAt = &t
			case "responded_by":
				l.RespondedBy = v.(string)
			case "retry_run_id":
				l.RetryRunID = v.(string)
			case "notes":
				l.Notes = v.(string)
			}
		}
		*log = *l
		return nil
	}
	return gorm.ErrRecordNotFound
}

type publishedEvent struct {
	Name string
	Data interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: event, Data: data})
}

// fakeOrders serves canned orders per "start..end" range
type fakeOrders struct {
	mu     sync.Mutex
	byDate map[string][]model.Order
	calls  []string
	err    error
}

func (f *fakeOrders) FetchOrders(_ context.Context, _, start, end string, _ cafe24.ProgressFunc) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, start+".."+end)
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[start+".."+end], nil
}

type fakeTokens struct {
	token string
	err   error
	codes []string
}

func (f *fakeTokens) AccessToken(context.Context) (string, error) { return f.token, f.err }
func (f *fakeTokens) Authenticated(context.Context) bool          { return f.err == nil }
func (f *fakeTokens) AuthURL() string                             { return "https://mall.example/authorize" }
func (f *fakeTokens) SaveGrant(_ context.Context, code string) error {
	f.codes = append(f.codes, code)
	return nil
}

type fakeSender struct {
	sent []slack.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg slack.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeRunner struct {
	dispatched  []map[string]string
	dispatchErr error
	runs        []github.Run
	jobs        []github.Job
	jobCalls    []int64
	log         string
}

func (f *fakeRunner) ActionsURL() string { return "https://github.com/acme/scraper/actions" }

func (f *fakeRunner) DispatchWorkflow(_ context.Context, inputs map[string]string) error {
	if f.dispatchErr != nil {
		return f.dispatchErr
	}
	f.dispatched = append(f.dispatched, inputs)
	return nil
}

func (f *fakeRunner) ListRuns(_ context.Context, perPage int) ([]github.Run, error) {
	if len(f.runs) > perPage {
		return f.runs[:perPage], nil
	}
	return f.runs, nil
}

func (f *fakeRunner) ListJobs(_ context.Context, runID int64) ([]github.Job, error) {
	f.jobCalls = append(f.jobCalls, runID)
	return f.jobs, nil
}

func (f *fakeRunner) JobLog(context.Context, int64) (string, error) { return f.log, nil }

func actorClaims(username, role string, brands ...string) *auth.Claims {
	c := &auth.Claims{Username: username, Role: role, Brands: brands}
	c.Subject = uuid.NewString()
	return c
}
