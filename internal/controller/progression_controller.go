package controller

import (
	"goalpath_backend/internal/service"
	"goalpath_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProgressionController 行动推进相关接口
type ProgressionController struct {
	CompletionService *service.CompletionService
	TodayService      *service.TodayService
	SelectionService  *service.GoalSelectionService
}

func NewProgressionController(
	completionService *service.CompletionService,
	todayService *service.TodayService,
	selectionService *service.GoalSelectionService,
) *ProgressionController {
	return &ProgressionController{
		CompletionService: completionService,
		TodayService:      todayService,
		SelectionService:  selectionService,
	}
}

// CompleteActionRequest difficulty 与 energy 必填，0 是合法值
type CompleteActionRequest struct {
	ActionID   uint `json:"actionId" binding:"required"`
	Difficulty *int `json:"difficulty" binding:"required"`
	Energy     *int `json:"energy" binding:"required"`
}

type MarkIncompleteRequest struct {
	ActionID uint `json:"actionId" binding:"required"`
}

type SelectGoalRequest struct {
	GoalID uint `json:"goalId" binding:"required"`
}

// CompleteActionResponse nextActionId 为 null 表示目标已全部完成
type CompleteActionResponse struct {
	Success      bool  `json:"success"`
	NextActionID *uint `json:"nextActionId"`
}

// @Summary 完成行动
// @Description 完成当前行动并记录难度与精力评分，每天最多完成一个行动
// @Tags 行动推进
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body CompleteActionRequest true "完成信息"
// @Success 200 {object} util.Response{data=CompleteActionResponse}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /progression/complete-action [post]
func (c *ProgressionController) CompleteAction(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CompleteActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "actionId, difficulty and energy are required integers")
		return
	}

	// 先在边界重新读取，已完成的行动直接返回 409，不进入引擎
	action, err := c.CompletionService.FindOwnedAction(ctx.Request.Context(), claims.UserID, req.ActionID)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	if action.IsCompleted() {
		util.Conflict(ctx, string(service.ReasonAlreadyCompleted))
		return
	}

	result, err := c.CompletionService.Complete(ctx.Request.Context(), claims.UserID, req.ActionID, *req.Difficulty, *req.Energy)
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	util.Success(ctx, CompleteActionResponse{
		Success:      true,
		NextActionID: result.NextActionID,
	})
}

// @Summary 标记未完成
// @Description 记录今天尝试过但未完成，不影响行动的完成状态
// @Tags 行动推进
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body MarkIncompleteRequest true "行动ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /progression/mark-incomplete [post]
func (c *ProgressionController) MarkIncomplete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req MarkIncompleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "actionId is required")
		return
	}

	action, err := c.CompletionService.FindOwnedAction(ctx.Request.Context(), claims.UserID, req.ActionID)
	if err != nil {
		c.handleError(ctx, err)
		return
	}
	if action.IsCompleted() {
		util.Conflict(ctx, string(service.ReasonAlreadyCompleted))
		return
	}

	if err := c.CompletionService.MarkIncomplete(ctx.Request.Context(), claims.UserID, req.ActionID); err != nil {
		c.handleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"success": true})
}

// @Summary 今日行动
// @Description 返回当前行动；前一天完成的行动会在新的一天推进到下一个
// @Tags 行动推进
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.TodayView}
// @Router /progression/today [get]
func (c *ProgressionController) Today(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.TodayService.Today(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 选择目标
// @Description 将当前指针切换到指定目标的第一个未完成行动
// @Tags 行动推进
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body SelectGoalRequest true "目标ID"
// @Success 200 {object} util.Response{data=model.StatePointer}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /progression/select-goal [post]
func (c *ProgressionController) SelectGoal(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SelectGoalRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "goalId is required")
		return
	}

	pointer, err := c.SelectionService.SelectGoal(ctx.Request.Context(), claims.UserID, req.GoalID)
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	util.Success(ctx, pointer)
}

// handleError 业务拒绝映射为 404/409，其余为 500
func (c *ProgressionController) handleError(ctx *gin.Context, err error) {
	rej, ok := service.AsRejection(err)
	if !ok {
		util.LogInternalError(ctx, err)
		return
	}
	if rej.Reason == service.ReasonNotFound {
		util.Error(ctx, http.StatusNotFound, string(rej.Reason))
		return
	}
	util.Conflict(ctx, string(rej.Reason))
}
