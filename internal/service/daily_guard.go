package service

import (
	"context"
	"goalpath_backend/internal/repository"

	"gorm.io/gorm"
)

// DailyGuard 每个用户每天最多完成一个行动。
// 只拦截"同一天完成了另一个行动"的情况，同一行动的重复完成由完成状态检查负责。
type DailyGuard struct {
	ExecRepo *repository.ExecutionRecordRepository
	Cache    *repository.CompletionCacheRepository
}

func NewDailyGuard(execRepo *repository.ExecutionRecordRepository, cache *repository.CompletionCacheRepository) *DailyGuard {
	return &DailyGuard{
		ExecRepo: execRepo,
		Cache:    cache,
	}
}

func (g *DailyGuard) WithTx(tx *gorm.DB) *DailyGuard {
	return &DailyGuard{
		ExecRepo: g.ExecRepo.WithTx(tx),
		Cache:    g.Cache,
	}
}

// MayCompleteToday 判断用户今天是否还能完成 actionID
func (g *DailyGuard) MayCompleteToday(ctx context.Context, userID, actionID uint, today string) (bool, error) {
	if cached, ok := g.Cache.Get(ctx, userID, today); ok && cached != actionID {
		return false, nil
	}

	records, err := g.ExecRepo.FindCompletedByUserAndDate(ctx, userID, today)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.ActionID != actionID {
			return false, nil
		}
	}
	return true, nil
}
