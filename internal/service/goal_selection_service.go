package service

import (
	"context"
	"errors"
	"fmt"
	"goalpath_backend/internal/model"
	"goalpath_backend/internal/repository"
	"goalpath_backend/internal/util"
	"goalpath_backend/pkg/logger"
	"goalpath_backend/pkg/tracing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GoalSelectionService 把用户的指针切换到某个目标
type GoalSelectionService struct {
	DB          *gorm.DB
	GoalRepo    *repository.GoalRepository
	PointerRepo *repository.StatePointerRepository
	Resolver    *OrderingResolver
}

func NewGoalSelectionService(
	db *gorm.DB,
	goalRepo *repository.GoalRepository,
	pointerRepo *repository.StatePointerRepository,
	resolver *OrderingResolver,
) *GoalSelectionService {
	return &GoalSelectionService{
		DB:          db,
		GoalRepo:    goalRepo,
		PointerRepo: pointerRepo,
		Resolver:    resolver,
	}
}

// SelectGoal 指针指向目标中第一个未完成的行动。目标中没有待做行动时行动与阶段为空。
func (s *GoalSelectionService) SelectGoal(ctx context.Context, userID, goalID uint) (*model.StatePointer, error) {
	ctx, span := tracing.Tracer.Start(ctx, "GoalSelectionService.SelectGoal")
	defer span.End()

	goal, err := s.GoalRepo.FindByIDAndUserID(ctx, goalID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reject(ReasonNotFound, util.ErrGoalNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load goal %d: %w", goalID, err)
	}
	if goal.IsTerminal() {
		return nil, reject(ReasonGoalCompleted, util.ErrGoalAlreadyComplete)
	}

	var pointer *model.StatePointer
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolver := s.Resolver.WithTx(tx)
		first, err := resolver.First(ctx, goalID)
		if err != nil {
			return err
		}
		pending, err := resolver.FirstPending(ctx, first)
		if err != nil {
			return err
		}

		pointers := s.PointerRepo.WithTx(tx)
		pointer, err = pointers.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("load state pointer: %w", err)
		}
		if pointer == nil {
			pointer = &model.StatePointer{UserID: userID}
		}

		gid := goal.ID
		pointer.CurrentGoalID = &gid
		pointer.CurrentPhaseID = nil
		pointer.CurrentActionID = nil
		if pending != nil {
			actionID, phaseID := pending.ID, pending.PhaseID
			pointer.CurrentActionID = &actionID
			pointer.CurrentPhaseID = &phaseID
		}
		return pointers.Save(ctx, pointer)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("goal selected", zap.Uint("userID", userID), zap.Uint("goalID", goalID))
	return pointer, nil
}
