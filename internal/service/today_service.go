package service

import (
	"context"
	"errors"
	"fmt"
	"goalpath_backend/internal/model"
	"goalpath_backend/internal/repository"
	"goalpath_backend/pkg/logger"
	"goalpath_backend/pkg/monitoring"
	"goalpath_backend/pkg/tracing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TodayView 用户今天看到的内容
type TodayView struct {
	Pointer        *model.StatePointer `json:"pointer"`
	Action         *model.Action       `json:"action"`
	CompletedToday bool                `json:"completedToday"`
	Advanced       bool                `json:"advanced"`
}

// TodayService 读取侧的"新的一天"检查：
// 当前行动在之前的某天已完成、且今天还没有完成记录时，把指针移到下一个未完成的行动
type TodayService struct {
	DB          *gorm.DB
	ActionRepo  *repository.ActionRepository
	PointerRepo *repository.StatePointerRepository
	DailyRepo   *repository.DailyCompletionRepository
	Resolver    *OrderingResolver
	Calendar    *Calendar
}

func NewTodayService(
	db *gorm.DB,
	actionRepo *repository.ActionRepository,
	pointerRepo *repository.StatePointerRepository,
	dailyRepo *repository.DailyCompletionRepository,
	resolver *OrderingResolver,
	calendar *Calendar,
) *TodayService {
	return &TodayService{
		DB:          db,
		ActionRepo:  actionRepo,
		PointerRepo: pointerRepo,
		DailyRepo:   dailyRepo,
		Resolver:    resolver,
		Calendar:    calendar,
	}
}

func (s *TodayService) Today(ctx context.Context, userID uint) (*TodayView, error) {
	ctx, span := tracing.Tracer.Start(ctx, "TodayService.Today")
	defer span.End()

	today := s.Calendar.Today()
	view := &TodayView{}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pointers := s.PointerRepo.WithTx(tx)
		actions := s.ActionRepo.WithTx(tx)

		claim, err := s.DailyRepo.WithTx(tx).FindByUserAndDay(ctx, userID, today)
		if err != nil {
			return fmt.Errorf("load daily completion: %w", err)
		}
		view.CompletedToday = claim != nil

		pointer, err := pointers.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("load state pointer: %w", err)
		}
		view.Pointer = pointer
		if pointer == nil || pointer.CurrentActionID == nil {
			return nil
		}

		current, err := actions.FindByID(ctx, *pointer.CurrentActionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load current action: %w", err)
		}
		view.Action = current

		if !s.shouldAdvance(current, today, view.CompletedToday) {
			return nil
		}

		resolver := s.Resolver.WithTx(tx)
		next, err := resolver.Next(ctx, current.ID)
		if err != nil {
			return fmt.Errorf("resolve next action: %w", err)
		}
		next, err = resolver.FirstPending(ctx, next)
		if err != nil {
			return fmt.Errorf("resolve pending action: %w", err)
		}
		if next == nil {
			return nil
		}

		actionID, phaseID := next.ID, next.PhaseID
		pointer.CurrentActionID = &actionID
		pointer.CurrentPhaseID = &phaseID
		if err := pointers.Save(ctx, pointer); err != nil {
			return fmt.Errorf("advance state pointer: %w", err)
		}
		view.Action = next
		view.Advanced = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if view.Advanced {
		monitoring.PointerAdvances.Inc()
		logger.Log.Info("state pointer advanced",
			zap.Uint("userID", userID),
			zap.Uint("actionID", view.Action.ID),
		)
	}
	return view, nil
}

// 同一天完成的行动不前移，第二天才前移
func (s *TodayService) shouldAdvance(current *model.Action, today string, completedToday bool) bool {
	if !current.IsCompleted() || completedToday {
		return false
	}
	return s.Calendar.DayOf(*current.CompletedAt) < today
}
