package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"goalpath_backend/internal/config"
	"goalpath_backend/internal/middleware"
	"goalpath_backend/internal/model"
	"goalpath_backend/internal/repository"
	"goalpath_backend/internal/service"
	"goalpath_backend/internal/testutil"
	"goalpath_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "progression-controller-test-secret"

type apiFixture struct {
	db     *gorm.DB
	clock  *testutil.FixedClock
	router *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	clock := testutil.NewFixedClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	calendar := service.NewCalendar(clock, time.UTC)

	goals := repository.NewGoalRepository(db)
	phases := repository.NewPhaseRepository(db)
	actions := repository.NewActionRepository(db)
	execs := repository.NewExecutionRecordRepository(db)
	pointers := repository.NewStatePointerRepository(db)
	daily := repository.NewDailyCompletionRepository(db)
	cache := repository.NewCompletionCacheRepository(nil)
	resolver := service.NewOrderingResolver(actions, phases)
	guard := service.NewDailyGuard(execs, cache)

	pc := NewProgressionController(
		service.NewCompletionService(db, goals, phases, actions, execs, pointers, daily, cache, resolver, guard, calendar),
		service.NewTodayService(db, actions, pointers, daily, resolver, calendar),
		service.NewGoalSelectionService(db, goals, pointers, resolver),
	)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	router := gin.New()
	router.Use(middleware.ConfigMiddleware(cfg))
	api := router.Group("/api/progression", middleware.AuthMiddleware())
	api.POST("/complete-action", pc.CompleteAction)
	api.POST("/mark-incomplete", pc.MarkIncomplete)
	api.GET("/today", pc.Today)
	api.POST("/select-goal", pc.SelectGoal)

	return &apiFixture{db: db, clock: clock, router: router}
}

func (f *apiFixture) do(t *testing.T, method, path string, userID uint, body string) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := util.GenerateJWT(userID, testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestCompleteAction_RequiresIdentity(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/progression/complete-action", 0, `{"actionId":1,"difficulty":1,"energy":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCompleteAction_ValidatesBody(t *testing.T) {
	f := newAPIFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 1)
	id := g.Actions[0][0].ID

	cases := map[string]string{
		"missing action":       `{"difficulty":1,"energy":1}`,
		"zero action":          `{"actionId":0,"difficulty":1,"energy":1}`,
		"missing difficulty":   `{"actionId":1,"energy":1}`,
		"missing energy":       `{"actionId":1,"difficulty":1}`,
		"string difficulty":    `{"actionId":1,"difficulty":"hard","energy":1}`,
		"fractional energy":    `{"actionId":1,"difficulty":1,"energy":1.5}`,
		"null energy":          `{"actionId":1,"difficulty":1,"energy":null}`,
		"malformed":            `{"actionId":`,
		"string action":        `{"actionId":"1","difficulty":1,"energy":1}`,
		"negative action":      `{"actionId":-1,"difficulty":1,"energy":1}`,
		"empty body":           ``,
		"array instead of obj": `[]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w, resp := f.do(t, http.MethodPost, "/api/progression/complete-action", 1, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}

	assert.Nil(t, testutil.ReloadAction(t, f.db, id).CompletedAt)
}

func TestCompleteAction_Flow(t *testing.T) {
	f := newAPIFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1, a2 := g.Actions[0][0], g.Actions[0][1]

	w, resp := f.do(t, http.MethodPost, "/api/progression/complete-action", 1,
		`{"actionId":`+itoa(a1.ID)+`,"difficulty":0,"energy":0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["success"])
	assert.EqualValues(t, a2.ID, data["nextActionId"])

	// 已完成
	w, resp = f.do(t, http.MethodPost, "/api/progression/complete-action", 1,
		`{"actionId":`+itoa(a1.ID)+`,"difficulty":1,"energy":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_completed", resp.Message)

	// 同一天的第二个行动
	w, resp = f.do(t, http.MethodPost, "/api/progression/complete-action", 1,
		`{"actionId":`+itoa(a2.ID)+`,"difficulty":1,"energy":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "daily_limit_reached", resp.Message)

	f.clock.Advance(24 * time.Hour)
	w, resp = f.do(t, http.MethodPost, "/api/progression/complete-action", 1,
		`{"actionId":`+itoa(a2.ID)+`,"difficulty":5,"energy":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["success"])
	assert.Contains(t, data, "nextActionId")
	assert.Nil(t, data["nextActionId"])
}

func TestCompleteAction_NotFound(t *testing.T) {
	f := newAPIFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 1)

	w, resp := f.do(t, http.MethodPost, "/api/progression/complete-action", 1, `{"actionId":9999,"difficulty":1,"energy":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp.Message)

	w, _ = f.do(t, http.MethodPost, "/api/progression/complete-action", 2,
		`{"actionId":`+itoa(g.Actions[0][0].ID)+`,"difficulty":1,"energy":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteAction_InfrastructureFailure(t *testing.T) {
	f := newAPIFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 1)
	id := g.Actions[0][0].ID

	require.NoError(t, f.db.Migrator().DropTable("daily_completions"))

	w, resp := f.do(t, http.MethodPost, "/api/progression/complete-action", 1,
		`{"actionId":`+itoa(id)+`,"difficulty":1,"energy":1}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Nil(t, testutil.ReloadAction(t, f.db, id).CompletedAt, "failed transaction must roll back")
}

func TestMarkIncomplete_Endpoint(t *testing.T) {
	f := newAPIFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a1 := g.Actions[0][0]

	w, _ := f.do(t, http.MethodPost, "/api/progression/mark-incomplete", 1, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/progression/mark-incomplete", 1, `{"actionId":9999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp := f.do(t, http.MethodPost, "/api/progression/mark-incomplete", 1, `{"actionId":`+itoa(a1.ID)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, resp.Data.(map[string]interface{})["success"])

	w, _ = f.do(t, http.MethodPost, "/api/progression/complete-action", 1, `{"actionId":`+itoa(a1.ID)+`,"difficulty":1,"energy":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, http.MethodPost, "/api/progression/mark-incomplete", 1, `{"actionId":`+itoa(a1.ID)+`}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_completed", resp.Message)
}

func TestMarkIncomplete_CompletedActionRejectedBeforeWrite(t *testing.T) {
	f := newAPIFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 2)
	a2 := g.Actions[0][1]

	// 直接写入完成标记，不经过完成流程
	marked, err := repository.NewActionRepository(f.db).MarkCompleted(context.Background(), a2.ID, f.clock.Now())
	require.NoError(t, err)
	require.True(t, marked)

	w, resp := f.do(t, http.MethodPost, "/api/progression/mark-incomplete", 1, `{"actionId":`+itoa(a2.ID)+`}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_completed", resp.Message)

	var count int64
	require.NoError(t, f.db.Model(&model.ExecutionRecord{}).Where("action_id = ?", a2.ID).Count(&count).Error)
	assert.Zero(t, count)

	// 他人的行动仍按不存在处理
	w, _ = f.do(t, http.MethodPost, "/api/progression/mark-incomplete", 2, `{"actionId":`+itoa(a2.ID)+`}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTodayAndSelectGoal_Endpoints(t *testing.T) {
	f := newAPIFixture(t)
	g := testutil.SeedGoal(t, f.db, 1, 2)

	w, _ := f.do(t, http.MethodPost, "/api/progression/select-goal", 2, `{"goalId":`+itoa(g.Goal.ID)+`}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/progression/select-goal", 1, `{"goalId":`+itoa(g.Goal.ID)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp := f.do(t, http.MethodGet, "/api/progression/today", 1, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := resp.Data.(map[string]interface{})
	action := data["action"].(map[string]interface{})
	assert.EqualValues(t, g.Actions[0][0].ID, action["id"])
	assert.Equal(t, false, data["completedToday"])
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
