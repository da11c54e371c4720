package repository

import (
	"context"
	"goalpath_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExecutionRecordRepository 执行记录，唯一键为 (user_id, action_id, record_date)
type ExecutionRecordRepository struct {
	DB *gorm.DB
}

func NewExecutionRecordRepository(db *gorm.DB) *ExecutionRecordRepository {
	return &ExecutionRecordRepository{DB: db}
}

func (r *ExecutionRecordRepository) WithTx(tx *gorm.DB) *ExecutionRecordRepository {
	return &ExecutionRecordRepository{DB: tx}
}

// Upsert 按唯一键写入或覆盖当天的执行记录
func (r *ExecutionRecordRepository) Upsert(ctx context.Context, record *model.ExecutionRecord) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "action_id"}, {Name: "record_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"completed", "difficulty", "energy", "updated_at",
		}),
	}).Create(record).Error
}

// FindByKey 查找某用户某行动某天的执行记录
func (r *ExecutionRecordRepository) FindByKey(ctx context.Context, userID, actionID uint, date string) (*model.ExecutionRecord, error) {
	var record model.ExecutionRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND action_id = ? AND record_date = ?", userID, actionID, date).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindCompletedByUserAndDate 用户某天所有 completed = true 的记录
func (r *ExecutionRecordRepository) FindCompletedByUserAndDate(ctx context.Context, userID uint, date string) ([]model.ExecutionRecord, error) {
	var records []model.ExecutionRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND record_date = ? AND completed = ?", userID, date, true).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// FindInDoubt 已记录完成、但对应行动的 completed_at 仍为空的记录
func (r *ExecutionRecordRepository) FindInDoubt(ctx context.Context, limit int) ([]model.ExecutionRecord, error) {
	var records []model.ExecutionRecord
	err := r.DB.WithContext(ctx).
		Joins("JOIN actions ON actions.id = execution_records.action_id").
		Where("execution_records.completed = ? AND actions.completed_at IS NULL", true).
		Order("execution_records.id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
