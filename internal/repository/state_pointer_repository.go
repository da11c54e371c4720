package repository

import (
	"context"
	"errors"
	"goalpath_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatePointerRepository 用户当前目标/阶段/行动指针。
// 写入总是整行覆盖三个指针字段，并以 user_id 作为条件。
type StatePointerRepository struct {
	DB *gorm.DB
}

func NewStatePointerRepository(db *gorm.DB) *StatePointerRepository {
	return &StatePointerRepository{DB: db}
}

func (r *StatePointerRepository) WithTx(tx *gorm.DB) *StatePointerRepository {
	return &StatePointerRepository{DB: tx}
}

// FindByUserID 用户没有指针时返回 nil, nil
func (r *StatePointerRepository) FindByUserID(ctx context.Context, userID uint) (*model.StatePointer, error) {
	return r.find(r.DB.WithContext(ctx), userID)
}

// FindByUserIDForUpdate 事务内读取并锁定指针行
func (r *StatePointerRepository) FindByUserIDForUpdate(ctx context.Context, userID uint) (*model.StatePointer, error) {
	return r.find(r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *StatePointerRepository) find(db *gorm.DB, userID uint) (*model.StatePointer, error) {
	var pointer model.StatePointer
	err := db.Where("user_id = ?", userID).First(&pointer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pointer, nil
}

// Save 整行写入指针；不存在时创建
func (r *StatePointerRepository) Save(ctx context.Context, pointer *model.StatePointer) error {
	db := r.DB.WithContext(ctx)
	if pointer.ID == 0 {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_goal_id", "current_phase_id", "current_action_id", "updated_at"}),
		}).Create(pointer).Error
	}

	result := db.Model(&model.StatePointer{}).
		Where("id = ? AND user_id = ?", pointer.ID, pointer.UserID).
		Select("current_goal_id", "current_phase_id", "current_action_id", "updated_at").
		Updates(pointer)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
