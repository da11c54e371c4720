package testutil

import (
	"goalpath_backend/internal/model"
	"goalpath_backend/pkg/database"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB 在临时目录创建已迁移的 sqlite 数据库，测试结束时关闭
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "goalpath_test.db"), nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// GoalFixture 种子目标及其阶段和行动，Actions[i] 为第 i 个阶段的行动
type GoalFixture struct {
	Goal    model.Goal
	Phases  []model.Phase
	Actions [][]model.Action
}

// Ordered 按推进顺序展开的全部行动
func (f *GoalFixture) Ordered() []model.Action {
	var out []model.Action
	for _, actions := range f.Actions {
		out = append(out, actions...)
	}
	return out
}

// SeedGoal 为 userID 创建一个目标，phaseSizes 依次为每个阶段的行动数量（0 表示空阶段）
func SeedGoal(t testing.TB, db *gorm.DB, userID uint, phaseSizes ...int) *GoalFixture {
	t.Helper()

	f := &GoalFixture{
		Goal: model.Goal{
			UserID: userID,
			Name:   "goal",
			Status: model.GoalActive,
		},
	}
	require.NoError(t, db.Create(&f.Goal).Error)

	for i, size := range phaseSizes {
		phase := model.Phase{GoalID: f.Goal.ID, OrderIndex: i, Name: "phase"}
		require.NoError(t, db.Create(&phase).Error)
		f.Phases = append(f.Phases, phase)

		actions := make([]model.Action, 0, size)
		for j := 0; j < size; j++ {
			action := model.Action{PhaseID: phase.ID, OrderIndex: j, Title: "action"}
			require.NoError(t, db.Create(&action).Error)
			actions = append(actions, action)
		}
		f.Actions = append(f.Actions, actions)
	}
	return f
}

// PointAt 把用户指针指向 action
func PointAt(t testing.TB, db *gorm.DB, userID uint, goalID uint, action *model.Action) *model.StatePointer {
	t.Helper()

	pointer := &model.StatePointer{UserID: userID, CurrentGoalID: &goalID}
	if action != nil {
		actionID, phaseID := action.ID, action.PhaseID
		pointer.CurrentActionID = &actionID
		pointer.CurrentPhaseID = &phaseID
	}
	require.NoError(t, db.Create(pointer).Error)
	return pointer
}

// ReloadAction 重新读取行动
func ReloadAction(t testing.TB, db *gorm.DB, id uint) *model.Action {
	t.Helper()

	var action model.Action
	require.NoError(t, db.First(&action, id).Error)
	return &action
}
