package repository

import (
	"context"
	"goalpath_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionRepository 处理行动的数据访问
type ActionRepository struct {
	DB *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{DB: db}
}

func (r *ActionRepository) WithTx(tx *gorm.DB) *ActionRepository {
	return &ActionRepository{DB: tx}
}

func (r *ActionRepository) Create(ctx context.Context, action *model.Action) error {
	return r.DB.WithContext(ctx).Create(action).Error
}

func (r *ActionRepository) FindByID(ctx context.Context, id uint) (*model.Action, error) {
	var action model.Action
	err := r.DB.WithContext(ctx).First(&action, id).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// FindByIDForUpdate 在事务中读取并锁定行动行（sqlite 下忽略行锁，由单连接串行保证）
func (r *ActionRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Action, error) {
	var action model.Action
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&action, id).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

// ListByPhase 按顺序返回阶段下的全部行动，顺序号相同时按创建先后排列
func (r *ActionRepository) ListByPhase(ctx context.Context, phaseID uint) ([]model.Action, error) {
	var actions []model.Action
	err := r.DB.WithContext(ctx).
		Where("phase_id = ?", phaseID).
		Order("order_index ASC").Order("created_at ASC").Order("id ASC").
		Find(&actions).Error
	return actions, err
}

// MarkCompleted 条件写入 completed_at，仅当其仍为空时生效。
// 返回 false 表示行动已被完成（或不存在），调用方据此拒绝。
func (r *ActionRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&model.Action{}).
		Where("id = ? AND completed_at IS NULL", id).
		Update("completed_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
