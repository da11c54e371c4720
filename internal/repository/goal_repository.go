package repository

import (
	"context"
	"goalpath_backend/internal/model"

	"gorm.io/gorm"
)

// GoalRepository 处理目标的数据访问
type GoalRepository struct {
	DB *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库
func (r *GoalRepository) WithTx(tx *gorm.DB) *GoalRepository {
	return &GoalRepository{DB: tx}
}

// Create 创建目标
func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	return r.DB.WithContext(ctx).Create(goal).Error
}

// FindByID 根据ID查找目标
func (r *GoalRepository) FindByID(ctx context.Context, id uint) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.WithContext(ctx).First(&goal, id).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// FindByIDAndUserID 根据ID和用户ID查找目标
func (r *GoalRepository) FindByIDAndUserID(ctx context.Context, id, userID uint) (*model.Goal, error) {
	var goal model.Goal
	err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&goal).Error
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// MarkCompleted 将目标置为已完成。已完成的目标不会被再次修改，返回是否发生了状态变化
func (r *GoalRepository) MarkCompleted(ctx context.Context, id uint) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&model.Goal{}).
		Where("id = ? AND status <> ?", id, model.GoalCompleted).
		Update("status", model.GoalCompleted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
