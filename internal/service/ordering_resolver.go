package service

import (
	"context"
	"errors"
	"fmt"
	"goalpath_backend/internal/model"
	"goalpath_backend/internal/repository"
	"goalpath_backend/internal/util"

	"gorm.io/gorm"
)

// OrderingResolver 计算行动的下一个行动：
// 同阶段的下一个 → 后续第一个非空阶段的第一个 → nil（目标已走完）
type OrderingResolver struct {
	ActionRepo *repository.ActionRepository
	PhaseRepo  *repository.PhaseRepository
}

func NewOrderingResolver(actionRepo *repository.ActionRepository, phaseRepo *repository.PhaseRepository) *OrderingResolver {
	return &OrderingResolver{
		ActionRepo: actionRepo,
		PhaseRepo:  phaseRepo,
	}
}

// WithTx 返回在事务内读取的解析器
func (r *OrderingResolver) WithTx(tx *gorm.DB) *OrderingResolver {
	return &OrderingResolver{
		ActionRepo: r.ActionRepo.WithTx(tx),
		PhaseRepo:  r.PhaseRepo.WithTx(tx),
	}
}

// Next 返回 actionID 之后的行动，目标已走完时返回 nil, nil
func (r *OrderingResolver) Next(ctx context.Context, actionID uint) (*model.Action, error) {
	action, err := r.ActionRepo.FindByID(ctx, actionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrActionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load action %d: %w", actionID, err)
	}

	phase, err := r.PhaseRepo.FindByID(ctx, action.PhaseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 孤立的行动没有后继
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load phase %d: %w", action.PhaseID, err)
	}

	siblings, err := r.ActionRepo.ListByPhase(ctx, phase.ID)
	if err != nil {
		return nil, fmt.Errorf("list actions of phase %d: %w", phase.ID, err)
	}
	if i := indexOfAction(siblings, action.ID); i >= 0 && i < len(siblings)-1 {
		return &siblings[i+1], nil
	}

	phases, err := r.PhaseRepo.ListByGoal(ctx, phase.GoalID)
	if err != nil {
		return nil, fmt.Errorf("list phases of goal %d: %w", phase.GoalID, err)
	}
	i := indexOfPhase(phases, phase.ID)
	if i < 0 {
		return nil, nil
	}
	return r.firstActionFrom(ctx, phases[i+1:])
}

// First 返回目标的第一个行动，目标没有任何行动时返回 nil, nil
func (r *OrderingResolver) First(ctx context.Context, goalID uint) (*model.Action, error) {
	phases, err := r.PhaseRepo.ListByGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("list phases of goal %d: %w", goalID, err)
	}
	return r.firstActionFrom(ctx, phases)
}

// FirstPending 从 start 开始（含）沿顺序找到第一个未完成的行动
func (r *OrderingResolver) FirstPending(ctx context.Context, start *model.Action) (*model.Action, error) {
	current := start
	for current != nil && current.IsCompleted() {
		next, err := r.Next(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// 空阶段直接跳过
func (r *OrderingResolver) firstActionFrom(ctx context.Context, phases []model.Phase) (*model.Action, error) {
	for _, p := range phases {
		actions, err := r.ActionRepo.ListByPhase(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list actions of phase %d: %w", p.ID, err)
		}
		if len(actions) > 0 {
			return &actions[0], nil
		}
	}
	return nil, nil
}

func indexOfAction(actions []model.Action, id uint) int {
	for i := range actions {
		if actions[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfPhase(phases []model.Phase, id uint) int {
	for i := range phases {
		if phases[i].ID == id {
			return i
		}
	}
	return -1
}
