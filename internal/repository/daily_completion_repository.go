package repository

import (
	"context"
	"errors"
	"goalpath_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyCompletionRepository 每用户每天一条的完成占位
type DailyCompletionRepository struct {
	DB *gorm.DB
}

func NewDailyCompletionRepository(db *gorm.DB) *DailyCompletionRepository {
	return &DailyCompletionRepository{DB: db}
}

func (r *DailyCompletionRepository) WithTx(tx *gorm.DB) *DailyCompletionRepository {
	return &DailyCompletionRepository{DB: tx}
}

// Claim 占用某用户某天的完成名额，名额已被占用时返回 false
func (r *DailyCompletionRepository) Claim(ctx context.Context, userID uint, day string, actionID uint) (bool, error) {
	claim := &model.DailyCompletion{
		UserID:      userID,
		CompletedOn: day,
		ActionID:    actionID,
	}
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(claim)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindByUserAndDay 没有记录时返回 nil, nil
func (r *DailyCompletionRepository) FindByUserAndDay(ctx context.Context, userID uint, day string) (*model.DailyCompletion, error) {
	var claim model.DailyCompletion
	err := r.DB.WithContext(ctx).Where("user_id = ? AND completed_on = ?", userID, day).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}
