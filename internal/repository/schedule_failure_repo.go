package repository

import (
	"context"

	"salesadmin/internal/model"

	"gorm.io/gorm"
)

type ScheduleFailureRepository interface {
	List(ctx context.Context) ([]model.ScheduleFailureLog, error)
	GetByID(ctx context.Context, id string) (*model.ScheduleFailureLog, error)
	GetByRunID(ctx context.Context, runID string) (*model.ScheduleFailureLog, error)
	// Create stores the log and drops everything beyond the newest MaxScheduleFailureLogs
	Create(ctx context.Context, log *model.ScheduleFailureLog) error
	// Update applies updates and reloads log
	Update(ctx context.Context, log *model.ScheduleFailureLog, updates map[string]interface{}) error
}

type scheduleFailureRepository struct {
	db *gorm.DB
}

func NewScheduleFailureRepository(db *gorm.DB) ScheduleFailureRepository {
	return &scheduleFailureRepository{db: db}
}

func (r *scheduleFailureRepository) List(ctx context.Context) ([]model.ScheduleFailureLog, error) {
	var logs []model.ScheduleFailureLog
	err := GetDB(ctx, r.db).Order("failed_at desc").Limit(model.MaxScheduleFailureLogs).Find(&logs).Error
	return logs, err
}

func (r *scheduleFailureRepository) GetByID(ctx context.Context, id string) (*model.ScheduleFailureLog, error) {
	var log model.ScheduleFailureLog
	if err := GetDB(ctx, r.db).First(&log, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *scheduleFailureRepository) GetByRunID(ctx context.Context, runID string) (*model.ScheduleFailureLog, error) {
	var log model.ScheduleFailureLog
	if err := GetDB(ctx, r.db).First(&log, "schedule_run_id = ?", runID).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *scheduleFailureRepository) Create(ctx context.Context, log *model.ScheduleFailureLog) error {
	db := GetDB(ctx, r.db)
	if err := db.Create(log).Error; err != nil {
		return err
	}
	return trimOldest(db, &model.ScheduleFailureLog{}, "failed_at", model.MaxScheduleFailureLogs)
}

func (r *scheduleFailureRepository) Update(ctx context.Context, log *model.ScheduleFailureLog, updates map[string]interface{}) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(log).Updates(updates).Error; err != nil {
		return err
	}
	return db.First(log, "id = ?", log.ID).Error
}
