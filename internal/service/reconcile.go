package service

import (
	"context"
	"errors"
	"fmt"
	"goalpath_backend/internal/model"
	"goalpath_backend/pkg/logger"
	"goalpath_backend/pkg/monitoring"
	"goalpath_backend/pkg/tracing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReconcileInDoubt 修复"执行记录已标记完成但行动 completed_at 仍为空"的记录：
// 只补写第二步（条件写入 completed_at），完成时间取记录的更新时间。
// 同一天已被其它行动占用的记录不做处理，只记录告警。返回修复条数。
func (s *CompletionService) ReconcileInDoubt(ctx context.Context, limit int) (int, error) {
	ctx, span := tracing.Tracer.Start(ctx, "CompletionService.ReconcileInDoubt")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	records, err := s.ExecRepo.FindInDoubt(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find in-doubt records: %w", err)
	}

	repaired := 0
	for i := range records {
		rec := records[i]
		ok, err := s.reconcileOne(ctx, &rec)
		if err != nil {
			logger.Log.Error("reconcile execution record failed",
				zap.Uint("recordID", rec.ID),
				zap.Uint("actionID", rec.ActionID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			repaired++
		}
	}

	if repaired > 0 {
		monitoring.ReconciledRecords.Add(float64(repaired))
		logger.Log.Info("in-doubt execution records reconciled", zap.Int("repaired", repaired), zap.Int("scanned", len(records)))
	}
	return repaired, nil
}

// errAlreadyMarked 占用名额之后发现行动已被其它请求完成
var errAlreadyMarked = errors.New("action already marked completed")

func (s *CompletionService) reconcileOne(ctx context.Context, rec *model.ExecutionRecord) (bool, error) {
	_, goal, err := s.loadOwned(ctx, rec.UserID, rec.ActionID)
	if IsRejected(err, ReasonNotFound) {
		logger.Log.Warn("in-doubt record points at a missing or foreign action", zap.Uint("recordID", rec.ID))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	completedAt := rec.UpdatedAt
	if completedAt.IsZero() {
		completedAt = s.Calendar.Now()
	}

	repaired := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.DailyRepo.WithTx(tx).Claim(ctx, rec.UserID, rec.RecordDate, rec.ActionID)
		if err != nil {
			return fmt.Errorf("claim daily completion: %w", err)
		}
		if !claimed {
			existing, err := s.DailyRepo.WithTx(tx).FindByUserAndDay(ctx, rec.UserID, rec.RecordDate)
			if err != nil {
				return fmt.Errorf("load daily completion: %w", err)
			}
			if existing == nil || existing.ActionID != rec.ActionID {
				logger.Log.Warn("in-doubt record conflicts with another completion on the same day",
					zap.Uint("recordID", rec.ID),
					zap.Uint("userID", rec.UserID),
					zap.String("date", rec.RecordDate),
				)
				return nil
			}
		}

		marked, err := s.ActionRepo.WithTx(tx).MarkCompleted(ctx, rec.ActionID, completedAt)
		if err != nil {
			return fmt.Errorf("mark action %d completed: %w", rec.ActionID, err)
		}
		if !marked {
			// 回滚上面的名额占用
			return errAlreadyMarked
		}
		repaired = true

		next, err := s.Resolver.WithTx(tx).Next(ctx, rec.ActionID)
		if err != nil {
			return fmt.Errorf("resolve next action: %w", err)
		}
		if next == nil {
			return s.closeGoal(ctx, tx, rec.UserID, goal.ID)
		}
		return nil
	})
	if errors.Is(err, errAlreadyMarked) {
		logger.Log.Info("action completed concurrently, in-doubt record left as is", zap.Uint("recordID", rec.ID))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return repaired, nil
}

// StartReconciler 按固定间隔执行修复，interval 为 0 时不启动。阻塞直到 ctx 取消。
func (s *CompletionService) StartReconciler(ctx context.Context, interval time.Duration, batch int) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ReconcileInDoubt(ctx, batch); err != nil {
				logger.Log.Error("reconcile in-doubt records", zap.Error(err))
			}
		}
	}
}
