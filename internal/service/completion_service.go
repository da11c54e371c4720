package service

import (
	"context"
	"errors"
	"fmt"
	"goalpath_backend/internal/model"
	"goalpath_backend/internal/repository"
	"goalpath_backend/internal/util"
	"goalpath_backend/pkg/logger"
	"goalpath_backend/pkg/monitoring"
	"goalpath_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionResult 完成行动的结果。
// NextActionID 仅供调用方参考，指针不会因此前移；为 nil 表示目标已全部完成。
type CompletionResult struct {
	Advanced      bool  `json:"advanced"`
	NextActionID  *uint `json:"nextActionId"`
	GoalCompleted bool  `json:"goalCompleted"`
}

// CompletionService 行动完成状态机：校验、写入完成标记与执行记录、判断目标是否结束
type CompletionService struct {
	DB          *gorm.DB
	GoalRepo    *repository.GoalRepository
	PhaseRepo   *repository.PhaseRepository
	ActionRepo  *repository.ActionRepository
	ExecRepo    *repository.ExecutionRecordRepository
	PointerRepo *repository.StatePointerRepository
	DailyRepo   *repository.DailyCompletionRepository
	Cache       *repository.CompletionCacheRepository
	Resolver    *OrderingResolver
	Guard       *DailyGuard
	Calendar    *Calendar
}

func NewCompletionService(
	db *gorm.DB,
	goalRepo *repository.GoalRepository,
	phaseRepo *repository.PhaseRepository,
	actionRepo *repository.ActionRepository,
	execRepo *repository.ExecutionRecordRepository,
	pointerRepo *repository.StatePointerRepository,
	dailyRepo *repository.DailyCompletionRepository,
	cache *repository.CompletionCacheRepository,
	resolver *OrderingResolver,
	guard *DailyGuard,
	calendar *Calendar,
) *CompletionService {
	return &CompletionService{
		DB:          db,
		GoalRepo:    goalRepo,
		PhaseRepo:   phaseRepo,
		ActionRepo:  actionRepo,
		ExecRepo:    execRepo,
		PointerRepo: pointerRepo,
		DailyRepo:   dailyRepo,
		Cache:       cache,
		Resolver:    resolver,
		Guard:       guard,
		Calendar:    calendar,
	}
}

// FindOwnedAction 读取属于该用户的行动，不存在或不属于该用户时返回 not_found 拒绝
func (s *CompletionService) FindOwnedAction(ctx context.Context, userID, actionID uint) (*model.Action, error) {
	action, _, err := s.loadOwned(ctx, userID, actionID)
	return action, err
}

// Complete 完成一个行动。
// 业务拒绝以 *Rejection 返回；其余错误均为基础设施故障。
func (s *CompletionService) Complete(ctx context.Context, userID, actionID uint, difficulty, energy int) (*CompletionResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "CompletionService.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("action.id", int64(actionID)),
	)

	result, err := s.complete(ctx, userID, actionID, difficulty, energy)
	s.observe(span, "complete", userID, actionID, err)
	if err != nil {
		return nil, err
	}

	if result.GoalCompleted {
		monitoring.GoalsCompleted.Inc()
	}
	logger.Log.Info("action completed",
		zap.Uint("userID", userID),
		zap.Uint("actionID", actionID),
		zap.Bool("advanced", result.Advanced),
		zap.Bool("goalCompleted", result.GoalCompleted),
	)
	return result, nil
}

func (s *CompletionService) complete(ctx context.Context, userID, actionID uint, difficulty, energy int) (*CompletionResult, error) {
	action, goal, err := s.loadOwned(ctx, userID, actionID)
	if err != nil {
		return nil, err
	}
	if action.IsCompleted() {
		return nil, reject(ReasonAlreadyCompleted, util.ErrActionCompleted)
	}

	now := s.Calendar.Now()
	today := s.Calendar.DayOf(now)

	allowed, err := s.Guard.MayCompleteToday(ctx, userID, actionID, today)
	if err != nil {
		return nil, fmt.Errorf("daily guard: %w", err)
	}
	if !allowed {
		return nil, reject(ReasonDailyLimitReached, util.ErrDailyLimitReached)
	}

	result := &CompletionResult{}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 条件写入：completed_at 仍为空才生效，并发请求中只有一个能成功
		marked, err := s.ActionRepo.WithTx(tx).MarkCompleted(ctx, actionID, now)
		if err != nil {
			return fmt.Errorf("mark action %d completed: %w", actionID, err)
		}
		if !marked {
			return reject(ReasonAlreadyCompleted, util.ErrActionCompleted)
		}

		claimed, err := s.DailyRepo.WithTx(tx).Claim(ctx, userID, today, actionID)
		if err != nil {
			return fmt.Errorf("claim daily completion: %w", err)
		}
		if !claimed {
			return reject(ReasonDailyLimitReached, util.ErrDailyLimitReached)
		}

		record := &model.ExecutionRecord{
			UserID:     userID,
			ActionID:   actionID,
			RecordDate: today,
			Completed:  true,
			Difficulty: &difficulty,
			Energy:     &energy,
		}
		if err := s.ExecRepo.WithTx(tx).Upsert(ctx, record); err != nil {
			return fmt.Errorf("upsert execution record: %w", err)
		}

		next, err := s.Resolver.WithTx(tx).Next(ctx, actionID)
		if err != nil {
			return fmt.Errorf("resolve next action: %w", err)
		}
		if next != nil {
			id := next.ID
			result.Advanced = true
			result.NextActionID = &id
			return nil
		}

		result.GoalCompleted = true
		return s.closeGoal(ctx, tx, userID, goal.ID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.Cache.Set(ctx, userID, today, actionID); err != nil {
		logger.Log.Warn("failed to cache daily completion", zap.Uint("userID", userID), zap.Error(err))
	}
	return result, nil
}

// closeGoal 目标最后一个行动完成后：目标置为已完成；若用户指针正指向该目标，清空当前行动，
// 目标和阶段保持不变以便查看已完成的目标
func (s *CompletionService) closeGoal(ctx context.Context, tx *gorm.DB, userID, goalID uint) error {
	if _, err := s.GoalRepo.WithTx(tx).MarkCompleted(ctx, goalID); err != nil {
		return fmt.Errorf("mark goal %d completed: %w", goalID, err)
	}

	pointers := s.PointerRepo.WithTx(tx)
	pointer, err := pointers.FindByUserIDForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("load state pointer: %w", err)
	}
	if pointer == nil || pointer.CurrentGoalID == nil || *pointer.CurrentGoalID != goalID {
		return nil
	}

	pointer.CurrentActionID = nil
	if err := pointers.Save(ctx, pointer); err != nil {
		return fmt.Errorf("clear current action: %w", err)
	}
	return nil
}

// MarkIncomplete 记录"今天尝试过但未完成"。已完成的行动不能再被标记为未完成。
// 不修改 completed_at，也不影响指针。
func (s *CompletionService) MarkIncomplete(ctx context.Context, userID, actionID uint) error {
	ctx, span := tracing.Tracer.Start(ctx, "CompletionService.MarkIncomplete")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("action.id", int64(actionID)),
	)

	err := s.markIncomplete(ctx, userID, actionID)
	s.observe(span, "mark_incomplete", userID, actionID, err)
	return err
}

func (s *CompletionService) markIncomplete(ctx context.Context, userID, actionID uint) error {
	if _, _, err := s.loadOwned(ctx, userID, actionID); err != nil {
		return err
	}

	today := s.Calendar.Today()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定行动行后再检查，避免与并发的完成请求交错
		action, err := s.ActionRepo.WithTx(tx).FindByIDForUpdate(ctx, actionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reject(ReasonNotFound, util.ErrActionNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock action %d: %w", actionID, err)
		}
		if action.IsCompleted() {
			return reject(ReasonAlreadyCompleted, util.ErrActionCompleted)
		}

		// 已记为完成但 completed_at 尚未写入的记录留给修复任务处理，不能被覆盖
		existing, err := s.ExecRepo.WithTx(tx).FindByKey(ctx, userID, actionID, today)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load execution record: %w", err)
		}
		if existing != nil && existing.Completed {
			return reject(ReasonAlreadyCompleted, util.ErrActionCompleted)
		}

		record := &model.ExecutionRecord{
			UserID:     userID,
			ActionID:   actionID,
			RecordDate: today,
			Completed:  false,
		}
		if err := s.ExecRepo.WithTx(tx).Upsert(ctx, record); err != nil {
			return fmt.Errorf("upsert execution record: %w", err)
		}
		return nil
	})
}

// loadOwned 读取行动及其所属目标，并校验目标归属
func (s *CompletionService) loadOwned(ctx context.Context, userID, actionID uint) (*model.Action, *model.Goal, error) {
	action, err := s.ActionRepo.FindByID(ctx, actionID)
	if err != nil {
		return nil, nil, notFoundOr(err, util.ErrActionNotFound, "load action")
	}
	phase, err := s.PhaseRepo.FindByID(ctx, action.PhaseID)
	if err != nil {
		return nil, nil, notFoundOr(err, util.ErrPhaseNotFound, "load phase")
	}
	goal, err := s.GoalRepo.FindByID(ctx, phase.GoalID)
	if err != nil {
		return nil, nil, notFoundOr(err, util.ErrGoalNotFound, "load goal")
	}
	if goal.UserID != userID {
		return nil, nil, reject(ReasonNotFound, util.ErrActionNotFound)
	}
	return action, goal, nil
}

func notFoundOr(err, sentinel error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reject(ReasonNotFound, sentinel)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *CompletionService) observe(span trace.Span, operation string, userID, actionID uint, err error) {
	switch rej, ok := AsRejection(err); {
	case err == nil:
		outcome := util.OutcomeCompleted
		if operation == "mark_incomplete" {
			outcome = util.OutcomeMarkedIncomplete
		}
		monitoring.ProgressionCounter.WithLabelValues(operation, outcome, "").Inc()
	case ok:
		monitoring.ProgressionCounter.WithLabelValues(operation, util.OutcomeRejected, string(rej.Reason)).Inc()
		logger.Log.Info("progression request rejected",
			zap.String("operation", operation),
			zap.Uint("userID", userID),
			zap.Uint("actionID", actionID),
			zap.String("reason", string(rej.Reason)),
		)
	default:
		monitoring.ProgressionCounter.WithLabelValues(operation, util.OutcomeFailed, "").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Log.Error("progression request failed",
			zap.String("operation", operation),
			zap.Uint("userID", userID),
			zap.Uint("actionID", actionID),
			zap.Error(err),
		)
	}
}
