package controller

import (
	"errors"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/service"
	"grading_center_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ArbitrationController struct {
	ArbitrationService *service.ArbitrationService
	Hub                *service.NotifyHub
}

func NewArbitrationController(arbitrationService *service.ArbitrationService, hub *service.NotifyHub) *ArbitrationController {
	return &ArbitrationController{
		ArbitrationService: arbitrationService,
		Hub:                hub,
	}
}

// EscalateRequest 手动升级仲裁
type EscalateRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Escalate godoc
// @Summary 将争议答案升级为仲裁单
// @Description 答案必须处于争议状态，且没有未关闭的仲裁单
// @Tags 仲裁
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "答案ID"
// @Param body body EscalateRequest true "升级理由"
// @Success 201 {object} util.Response{data=model.Arbitration}
// @Failure 400 {object} util.Response "状态不允许"
// @Failure 409 {object} util.Response "已存在未关闭的仲裁单"
// @Router /api/answers/{id}/arbitration [post]
func (c *ArbitrationController) Escalate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	answerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req EscalateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	arb, err := c.ArbitrationService.Escalate(answerID, user.UserID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAnswerNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrEmptyDisputeReason):
			util.BadRequest(ctx, "必须提供升级理由")
		case errors.Is(err, util.ErrInvalidStateTransition):
			util.BadRequest(ctx, "只有争议状态的答案才能升级仲裁")
		case errors.Is(err, util.ErrOpenCaseExists):
			util.Conflict(ctx, "该答案已存在未关闭的仲裁单")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, arb)
}

// List godoc
// @Summary 仲裁单列表
// @Tags 仲裁
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "状态过滤 pending/reviewing/approved/rejected"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/arbitrations [get]
func (c *ArbitrationController) List(ctx *gin.Context) {
	page, size := pageParams(ctx)
	status := model.ArbitrationStatus(ctx.Query("status"))

	cases, total, err := c.ArbitrationService.List(status, page, size)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: cases, Total: total, Page: page, Size: size})
}

// Get godoc
// @Summary 仲裁单详情
// @Tags 仲裁
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "仲裁单ID"
// @Success 200 {object} util.Response{data=model.Arbitration}
// @Failure 404 {object} util.Response
// @Router /api/arbitrations/{id} [get]
func (c *ArbitrationController) Get(ctx *gin.Context) {
	caseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	arb, err := c.ArbitrationService.Get(caseID)
	if err != nil {
		if errors.Is(err, util.ErrCaseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, arb)
}

// Claim godoc
// @Summary 仲裁人认领仲裁单
// @Tags 仲裁
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "仲裁单ID"
// @Success 200 {object} util.Response{data=model.Arbitration}
// @Failure 400 {object} util.Response "仲裁单不在待处理状态"
// @Router /api/arbitrations/{id}/claim [post]
func (c *ArbitrationController) Claim(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	caseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	arb, err := c.ArbitrationService.Claim(caseID, user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCaseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidStateTransition):
			util.BadRequest(ctx, "仲裁单已被认领或已关闭")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, arb)
}

// ResolveRequest 仲裁裁决
type ResolveRequest struct {
	// true 批准并采用 adjustedScore，false 维持原均分
	Approve       bool     `json:"approve"`
	AdjustedScore *float64 `json:"adjustedScore"`
	Resolution    string   `json:"resolution" binding:"required"`
}

// Resolve godoc
// @Summary 仲裁人裁决仲裁单
// @Description 批准时调整分写回答案作为最终分；拒绝维持原均分。
// @Description 两种结局都关闭仲裁单，答案进入已仲裁状态
// @Tags 仲裁
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "仲裁单ID"
// @Param body body ResolveRequest true "裁决内容"
// @Success 200 {object} util.Response{data=model.Arbitration}
// @Failure 400 {object} util.Response "仲裁单已关闭或分数越界"
// @Router /api/arbitrations/{id}/resolve [post]
func (c *ArbitrationController) Resolve(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	caseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req ResolveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Approve && req.AdjustedScore == nil {
		util.BadRequest(ctx, "批准裁决必须提供调整后的分数")
		return
	}

	adjusted := 0.0
	if req.AdjustedScore != nil {
		adjusted = *req.AdjustedScore
	}

	arb, err := c.ArbitrationService.Resolve(caseID, user.UserID, req.Approve, adjusted, req.Resolution)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCaseNotFound), errors.Is(err, util.ErrAnswerNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidStateTransition):
			util.BadRequest(ctx, "仲裁单已关闭，不能重复裁决")
		case errors.Is(err, util.ErrScoreOutOfRange):
			util.BadRequest(ctx, "调整分必须在 0 到题目满分之间")
		case errors.Is(err, util.ErrConflict):
			util.Conflict(ctx, "操作冲突，请重试")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, arb)
}

// WatchEvents godoc
// @Summary 仲裁事件推送（WebSocket）
// @Tags 仲裁
// @Security ApiKeyAuth
// @Router /api/ws/arbitration [get]
func (c *ArbitrationController) WatchEvents(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	c.Hub.HandleWS(ctx, user.UserID)
}
