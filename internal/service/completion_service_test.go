package service

import (
	"context"
	"goalpath_backend/internal/model"
	"goalpath_backend/internal/testutil"
	"goalpath_backend/internal/util"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_AdvancesWithinGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1, a2 := g.Actions[0][0], g.Actions[0][1]

	result, err := f.completion.Complete(ctx, 1, a1.ID, 3, 4)
	require.NoError(t, err)
	assert.True(t, result.Advanced)
	assert.False(t, result.GoalCompleted)
	require.NotNil(t, result.NextActionID)
	assert.Equal(t, a2.ID, *result.NextActionID)

	reloaded := testutil.ReloadAction(t, f.db, a1.ID)
	require.NotNil(t, reloaded.CompletedAt)
	assert.Equal(t, f.calendar.Today(), f.calendar.DayOf(*reloaded.CompletedAt))

	goal, err := f.goals.FindByID(ctx, g.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalActive, goal.Status)

	rec, err := f.execs.FindByKey(ctx, 1, a1.ID, f.calendar.Today())
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.Equal(t, intPtr(3), rec.Difficulty)
	assert.Equal(t, intPtr(4), rec.Energy)
}

func TestComplete_LastActionClosesGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1, a2 := g.Actions[0][0], g.Actions[0][1]
	testutil.PointAt(t, f.db, 1, g.Goal.ID, &a2)

	_, err := f.completion.Complete(ctx, 1, a1.ID, 3, 4)
	require.NoError(t, err)

	f.nextDay()
	result, err := f.completion.Complete(ctx, 1, a2.ID, 2, 2)
	require.NoError(t, err)
	assert.False(t, result.Advanced)
	assert.True(t, result.GoalCompleted)
	assert.Nil(t, result.NextActionID)

	goal, err := f.goals.FindByID(ctx, g.Goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalCompleted, goal.Status)

	pointer, err := f.pointers.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, pointer)
	assert.Nil(t, pointer.CurrentActionID)
	require.NotNil(t, pointer.CurrentGoalID)
	assert.Equal(t, g.Goal.ID, *pointer.CurrentGoalID)
	require.NotNil(t, pointer.CurrentPhaseID)
	assert.Equal(t, a2.PhaseID, *pointer.CurrentPhaseID)
}

func TestComplete_ClosingGoalLeavesOtherGoalPointerAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	closing := testutil.SeedGoal(t, f.db, 1, 1)
	other := testutil.SeedGoal(t, f.db, 1, 1)
	otherAction := other.Actions[0][0]
	testutil.PointAt(t, f.db, 1, other.Goal.ID, &otherAction)

	result, err := f.completion.Complete(ctx, 1, closing.Actions[0][0].ID, 1, 1)
	require.NoError(t, err)
	assert.True(t, result.GoalCompleted)

	pointer, err := f.pointers.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, pointer.CurrentActionID)
	assert.Equal(t, otherAction.ID, *pointer.CurrentActionID)
	assert.Equal(t, other.Goal.ID, *pointer.CurrentGoalID)
}

func TestComplete_DoesNotMovePointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1 := g.Actions[0][0]
	testutil.PointAt(t, f.db, 1, g.Goal.ID, &a1)

	_, err := f.completion.Complete(ctx, 1, a1.ID, 1, 1)
	require.NoError(t, err)

	pointer, err := f.pointers.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, pointer.CurrentActionID)
	assert.Equal(t, a1.ID, *pointer.CurrentActionID)
}

func TestComplete_AlreadyCompletedIsRejectedWithoutChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1 := g.Actions[0][0]

	_, err := f.completion.Complete(ctx, 1, a1.ID, 3, 4)
	require.NoError(t, err)
	before := testutil.ReloadAction(t, f.db, a1.ID)

	f.nextDay()
	_, err = f.completion.Complete(ctx, 1, a1.ID, 5, 5)
	assert.True(t, IsRejected(err, ReasonAlreadyCompleted), "got %v", err)
	assert.ErrorIs(t, err, util.ErrActionCompleted)

	after := testutil.ReloadAction(t, f.db, a1.ID)
	assert.True(t, before.CompletedAt.Equal(*after.CompletedAt))

	_, err = f.execs.FindByKey(ctx, 1, a1.ID, f.calendar.Today())
	assert.Error(t, err, "rejected request must not write a record")
}

func TestComplete_SecondActionSameDayIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 3)
	x, y := g.Actions[0][0], g.Actions[0][2]

	_, err := f.completion.Complete(ctx, 1, x.ID, 1, 1)
	require.NoError(t, err)

	_, err = f.completion.Complete(ctx, 1, y.ID, 1, 1)
	assert.True(t, IsRejected(err, ReasonDailyLimitReached), "got %v", err)
	assert.Nil(t, testutil.ReloadAction(t, f.db, y.ID).CompletedAt)

	f.nextDay()
	_, err = f.completion.Complete(ctx, 1, y.ID, 1, 1)
	assert.NoError(t, err)
}

func TestComplete_AcceptsZeroRatings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 1)

	_, err := f.completion.Complete(ctx, 1, g.Actions[0][0].ID, 0, 0)
	require.NoError(t, err)

	rec, err := f.execs.FindByKey(ctx, 1, g.Actions[0][0].ID, f.calendar.Today())
	require.NoError(t, err)
	assert.Equal(t, intPtr(0), rec.Difficulty)
	assert.Equal(t, intPtr(0), rec.Energy)
}

func TestComplete_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 1)

	_, err := f.completion.Complete(ctx, 1, 9999, 1, 1)
	assert.True(t, IsRejected(err, ReasonNotFound), "got %v", err)

	// 其他用户的行动等同于不存在
	_, err = f.completion.Complete(ctx, 2, g.Actions[0][0].ID, 1, 1)
	assert.True(t, IsRejected(err, ReasonNotFound), "got %v", err)
	assert.Nil(t, testutil.ReloadAction(t, f.db, g.Actions[0][0].ID).CompletedAt)
}

func TestComplete_ConcurrentSameActionCompletesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a2 := g.Actions[0][1]

	ratings := []int{2, 5}
	errs := make([]error, len(ratings))
	var wg sync.WaitGroup
	for i, r := range ratings {
		wg.Add(1)
		go func(i, r int) {
			defer wg.Done()
			_, errs[i] = f.completion.Complete(ctx, 1, a2.ID, r, r)
		}(i, r)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "more than one request succeeded")
			winner = i
			continue
		}
		assert.True(t, IsRejected(err, ReasonAlreadyCompleted), "loser got %v", err)
	}
	require.NotEqual(t, -1, winner, "no request succeeded")

	rec, err := f.execs.FindByKey(ctx, 1, a2.ID, f.calendar.Today())
	require.NoError(t, err)
	assert.Equal(t, intPtr(ratings[winner]), rec.Difficulty)
	assert.Equal(t, intPtr(ratings[winner]), rec.Energy)
	assert.NotNil(t, testutil.ReloadAction(t, f.db, a2.ID).CompletedAt)
}

func TestComplete_ConcurrentDifferentActionsSameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 4)
	actions := g.Actions[0]

	errs := make([]error, len(actions))
	var wg sync.WaitGroup
	for i := range actions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.completion.Complete(ctx, 1, actions[i].ID, 1, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, IsRejected(err, ReasonDailyLimitReached), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	var completed int64
	require.NoError(t, f.db.Model(&model.Action{}).Where("completed_at IS NOT NULL").Count(&completed).Error)
	assert.EqualValues(t, 1, completed)

	records, err := f.execs.FindCompletedByUserAndDate(ctx, 1, f.calendar.Today())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMarkIncomplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1 := g.Actions[0][0]

	require.NoError(t, f.completion.MarkIncomplete(ctx, 1, a1.ID))
	// 同一天重复标记是幂等的
	require.NoError(t, f.completion.MarkIncomplete(ctx, 1, a1.ID))

	rec, err := f.execs.FindByKey(ctx, 1, a1.ID, f.calendar.Today())
	require.NoError(t, err)
	assert.False(t, rec.Completed)
	assert.Nil(t, rec.Difficulty)
	assert.Nil(t, rec.Energy)
	assert.Nil(t, testutil.ReloadAction(t, f.db, a1.ID).CompletedAt)

	// 标记未完成不占用当天的完成名额
	_, err = f.completion.Complete(ctx, 1, a1.ID, 4, 2)
	require.NoError(t, err)
	rec, err = f.execs.FindByKey(ctx, 1, a1.ID, f.calendar.Today())
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.Equal(t, intPtr(4), rec.Difficulty)
}

func TestMarkIncomplete_CompletedActionIsIrreversible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1 := g.Actions[0][0]

	_, err := f.completion.Complete(ctx, 1, a1.ID, 3, 3)
	require.NoError(t, err)
	before := testutil.ReloadAction(t, f.db, a1.ID)

	err = f.completion.MarkIncomplete(ctx, 1, a1.ID)
	assert.True(t, IsRejected(err, ReasonAlreadyCompleted), "got %v", err)

	f.nextDay()
	err = f.completion.MarkIncomplete(ctx, 1, a1.ID)
	assert.True(t, IsRejected(err, ReasonAlreadyCompleted), "got %v", err)

	after := testutil.ReloadAction(t, f.db, a1.ID)
	require.NotNil(t, after.CompletedAt)
	assert.True(t, before.CompletedAt.Equal(*after.CompletedAt))

	rec, err := f.execs.FindByKey(ctx, 1, a1.ID, "2026-03-02")
	require.NoError(t, err)
	assert.True(t, rec.Completed, "completed record must never be downgraded")
}

func TestMarkIncomplete_NotFound(t *testing.T) {
	f := newFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 1)

	err := f.completion.MarkIncomplete(context.Background(), 2, g.Actions[0][0].ID)
	assert.True(t, IsRejected(err, ReasonNotFound), "got %v", err)
}

func TestComplete_ClaimedDayRollsBackCompletionMark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1, a2 := g.Actions[0][0], g.Actions[0][1]

	// 当天名额已被占用，但还没有对应的执行记录，读取侧的检查会放行
	require.NoError(t, f.db.Create(&model.DailyCompletion{UserID: 1, CompletedOn: f.calendar.Today(), ActionID: a1.ID}).Error)

	_, err := f.completion.Complete(ctx, 1, a2.ID, 3, 3)
	assert.True(t, IsRejected(err, ReasonDailyLimitReached), "got %v", err)
	assert.ErrorIs(t, err, util.ErrDailyLimitReached)

	assert.Nil(t, testutil.ReloadAction(t, f.db, a2.ID).CompletedAt, "completion mark must be rolled back")
	_, err = f.execs.FindByKey(ctx, 1, a2.ID, f.calendar.Today())
	assert.Error(t, err, "no execution record may be written")
}

func TestMarkIncomplete_KeepsInDoubtCompletedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1 := g.Actions[0][0]

	// 记录已标记完成，completed_at 尚未写入
	require.NoError(t, f.execs.Upsert(ctx, &model.ExecutionRecord{
		UserID: 1, ActionID: a1.ID, RecordDate: f.calendar.Today(), Completed: true,
		Difficulty: intPtr(2), Energy: intPtr(4),
	}))

	err := f.completion.MarkIncomplete(ctx, 1, a1.ID)
	assert.True(t, IsRejected(err, ReasonAlreadyCompleted), "got %v", err)

	rec, err := f.execs.FindByKey(ctx, 1, a1.ID, f.calendar.Today())
	require.NoError(t, err)
	assert.True(t, rec.Completed)
	assert.Equal(t, intPtr(2), rec.Difficulty)
	assert.Equal(t, intPtr(4), rec.Energy)

	repaired, err := f.completion.ReconcileInDoubt(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.NotNil(t, testutil.ReloadAction(t, f.db, a1.ID).CompletedAt)
}
