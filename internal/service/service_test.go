package service

import (
	"goalpath_backend/internal/repository"
	"goalpath_backend/internal/testutil"
	"testing"
	"time"

	"gorm.io/gorm"
)

// fixture 基于 sqlite 的完整服务组合
type fixture struct {
	db         *gorm.DB
	clock      *testutil.FixedClock
	calendar   *Calendar
	resolver   *OrderingResolver
	guard      *DailyGuard
	completion *CompletionService
	today      *TodayService
	selection  *GoalSelectionService
	pointers   *repository.StatePointerRepository
	execs      *repository.ExecutionRecordRepository
	goals      *repository.GoalRepository
}

var day1 = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	clock := testutil.NewFixedClock(day1)
	calendar := NewCalendar(clock, time.UTC)

	goals := repository.NewGoalRepository(db)
	phases := repository.NewPhaseRepository(db)
	actions := repository.NewActionRepository(db)
	execs := repository.NewExecutionRecordRepository(db)
	pointers := repository.NewStatePointerRepository(db)
	daily := repository.NewDailyCompletionRepository(db)
	cache := repository.NewCompletionCacheRepository(nil)

	resolver := NewOrderingResolver(actions, phases)
	guard := NewDailyGuard(execs, cache)

	return &fixture{
		db:         db,
		clock:      clock,
		calendar:   calendar,
		resolver:   resolver,
		guard:      guard,
		completion: NewCompletionService(db, goals, phases, actions, execs, pointers, daily, cache, resolver, guard, calendar),
		today:      NewTodayService(db, actions, pointers, daily, resolver, calendar),
		selection:  NewGoalSelectionService(db, goals, pointers, resolver),
		pointers:   pointers,
		execs:      execs,
		goals:      goals,
	}
}

func (f *fixture) nextDay() {
	f.clock.Advance(24 * time.Hour)
}

func intPtr(v int) *int {
	return &v
}
