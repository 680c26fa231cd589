package controller

import (
	"errors"
	"fmt"

	"grading_center_backend/internal/service"
	"grading_center_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GradingController struct {
	GradingService *service.GradingService
}

func NewGradingController(gradingService *service.GradingService) *GradingController {
	return &GradingController{GradingService: gradingService}
}

// SubmitScoreRequest 评阅人提交评分
type SubmitScoreRequest struct {
	Score    *float64 `json:"score" binding:"required"`
	Comments string   `json:"comments"`
}

// SubmitScore godoc
// @Summary 评阅人对答案评分
// @Description 同一评阅人重复提交会覆盖自己之前的评分；凑齐评阅人后
// @Description 按评分方差决定直接出分还是进入争议
// @Tags 阅卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "答案ID"
// @Param body body SubmitScoreRequest true "分数与评语"
// @Success 200 {object} util.Response{data=model.SubjectiveAnswer}
// @Failure 400 {object} util.Response "分数越界"
// @Failure 404 {object} util.Response "答案不存在"
// @Failure 409 {object} util.Response "并发冲突，请重试"
// @Router /api/answers/{id}/score [post]
func (c *GradingController) SubmitScore(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	answerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req SubmitScoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.GradingService.SubmitScore(answerID, user.UserID, *req.Score, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAnswerNotFound), errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrScoreOutOfRange):
			util.BadRequest(ctx, "分数必须在 0 到题目满分之间")
		case errors.Is(err, util.ErrConflict):
			util.Conflict(ctx, "评分提交冲突，请重新加载后重试")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	msg := fmt.Sprintf("评分成功，当前已有 %d 位评阅人完成评分", answer.MarkerCount)
	if answer.NeedArbitration {
		msg = "评分完成，但需要仲裁"
	} else if answer.FinalScore != nil {
		msg = "评分完成"
	}
	util.Success(ctx, gin.H{"message": msg, "answer": answer})
}

// DisputeRequest 考生提出争议
type DisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FileDispute godoc
// @Summary 对已评阅答案提出争议
// @Tags 阅卷
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "答案ID"
// @Param body body DisputeRequest true "争议理由"
// @Success 200 {object} util.Response{data=model.SubjectiveAnswer}
// @Failure 400 {object} util.Response "理由为空或答案不在已评阅状态"
// @Router /api/answers/{id}/dispute [post]
func (c *GradingController) FileDispute(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	answerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req DisputeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.GradingService.FileDispute(answerID, user.UserID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAnswerNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrEmptyDisputeReason):
			util.BadRequest(ctx, "必须提供争议理由")
		case errors.Is(err, util.ErrInvalidStateTransition):
			util.BadRequest(ctx, "只有已评阅的答案才能提出争议")
		case errors.Is(err, util.ErrConflict):
			util.Conflict(ctx, "操作冲突，请重试")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, answer)
}
