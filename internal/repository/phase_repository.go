package repository

import (
	"context"
	"goalpath_backend/internal/model"

	"gorm.io/gorm"
)

type PhaseRepository struct {
	DB *gorm.DB
}

func NewPhaseRepository(db *gorm.DB) *PhaseRepository {
	return &PhaseRepository{DB: db}
}

func (r *PhaseRepository) WithTx(tx *gorm.DB) *PhaseRepository {
	return &PhaseRepository{DB: tx}
}

func (r *PhaseRepository) Create(ctx context.Context, phase *model.Phase) error {
	return r.DB.WithContext(ctx).Create(phase).Error
}

func (r *PhaseRepository) FindByID(ctx context.Context, id uint) (*model.Phase, error) {
	var phase model.Phase
	err := r.DB.WithContext(ctx).First(&phase, id).Error
	if err != nil {
		return nil, err
	}
	return &phase, nil
}

// ListByGoal 按顺序返回目标下的全部阶段，顺序号相同时按创建先后排列
func (r *PhaseRepository) ListByGoal(ctx context.Context, goalID uint) ([]model.Phase, error) {
	var phases []model.Phase
	err := r.DB.WithContext(ctx).
		Where("goal_id = ?", goalID).
		Order("order_index ASC").Order("created_at ASC").Order("id ASC").
		Find(&phases).Error
	return phases, err
}
