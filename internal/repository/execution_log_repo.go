package repository

import (
	"context"

	"salesadmin/internal/model"

	"gorm.io/gorm"
)

type ExecutionLogRepository interface {
	List(ctx context.Context) ([]model.ExecutionLog, error)
	// Create stores the log and drops everything beyond the newest MaxExecutionLogs
	Create(ctx context.Context, log *model.ExecutionLog) error
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.ExecutionLog, error)
}

type executionLogRepository struct {
	db *gorm.DB
}

func NewExecutionLogRepository(db *gorm.DB) ExecutionLogRepository {
	return &executionLogRepository{db: db}
}

func (r *executionLogRepository) List(ctx context.Context) ([]model.ExecutionLog, error) {
	var logs []model.ExecutionLog
	err := GetDB(ctx, r.db).Order("start_time desc").Limit(model.MaxExecutionLogs).Find(&logs).Error
	return logs, err
}

func (r *executionLogRepository) Create(ctx context.Context, log *model.ExecutionLog) error {
	db := GetDB(ctx, r.db)
	if err := db.Create(log).Error; err != nil {
		return err
	}
	return trimOldest(db, &model.ExecutionLog{}, "start_time", model.MaxExecutionLogs)
}

func (r *executionLogRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.ExecutionLog, error) {
	db := GetDB(ctx, r.db)

	var log model.ExecutionLog
	if err := db.First(&log, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&log).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := db.First(&log, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// trimOldest keeps the newest keep rows of a table ordered by column
func trimOldest(db *gorm.DB, table interface{}, column string, keep int) error {
	stale := db.Model(table).Select("id").Order(column + " desc").Offset(keep)
	return db.Where("id IN (?)", stale).Delete(table).Error
}
