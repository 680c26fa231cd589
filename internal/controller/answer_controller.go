package controller

import (
	"errors"
	"strconv"

	"grading_center_backend/internal/model"
	"grading_center_backend/internal/service"
	"grading_center_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnswerController struct {
	AnswerService *service.AnswerService
}

func NewAnswerController(answerService *service.AnswerService) *AnswerController {
	return &AnswerController{AnswerService: answerService}
}

func pageParams(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(ctx.DefaultQuery("size", "10"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return page, size
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// ListExams godoc
// @Summary 考试列表
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/exams [get]
func (c *AnswerController) ListExams(ctx *gin.Context) {
	page, size := pageParams(ctx)
	exams, total, err := c.AnswerService.ListExams(page, size)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: exams, Total: total, Page: page, Size: size})
}

// ListQuestions godoc
// @Summary 某场考试的主观题列表
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/exams/{id}/questions [get]
func (c *AnswerController) ListQuestions(ctx *gin.Context) {
	examID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	questions, err := c.AnswerService.ListQuestions(examID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, questions)
}

// CreateAnswerRequest 考生提交答案
type CreateAnswerRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	AnswerText string `json:"answerText" binding:"required"`
}

// CreateAnswer godoc
// @Summary 提交主观题答案
// @Description 答案持久化后进入待评阅状态，文本不可再变更
// @Tags 答案
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateAnswerRequest true "答案内容"
// @Success 201 {object} util.Response{data=model.SubjectiveAnswer}
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/answers [post]
func (c *AnswerController) CreateAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answer, err := c.AnswerService.CreateAnswer(user.UserID, req.QuestionID, req.AnswerText)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, answer)
}

// ListPending godoc
// @Summary 待评阅答案列表（按考试）
// @Tags 阅卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} util.Response{data=service.AnswerPage}
// @Router /api/exams/{id}/answers/pending [get]
func (c *AnswerController) ListPending(ctx *gin.Context) {
	c.listByStatus(ctx, model.AnswerPending)
}

// ListMarked godoc
// @Summary 已评阅答案列表（按考试）
// @Tags 阅卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "考试ID"
// @Param page query int false "页码"
// @Param size query int false "每页数量"
// @Success 200 {object} util.Response{data=service.AnswerPage}
// @Router /api/exams/{id}/answers/marked [get]
func (c *AnswerController) ListMarked(ctx *gin.Context) {
	c.listByStatus(ctx, model.AnswerMarked)
}

func (c *AnswerController) listByStatus(ctx *gin.Context, status model.AnswerStatus) {
	examID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	page, size := pageParams(ctx)

	result, err := c.AnswerService.ListByExam(examID, status, page, size)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetDetail godoc
// @Summary 答案详情
// @Description 含各评阅人的评分记录、仲裁信息与附件
// @Tags 阅卷
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "答案ID"
// @Success 200 {object} util.Response{data=service.AnswerDetail}
// @Failure 404 {object} util.Response
// @Router /api/answers/{id} [get]
func (c *AnswerController) GetDetail(ctx *gin.Context) {
	answerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.AnswerService.GetDetail(answerID)
	if err != nil {
		if errors.Is(err, util.ErrAnswerNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// UploadAttachment godoc
// @Summary 上传答案附件（答题卡扫描件）
// @Tags 阅卷
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "答案ID"
// @Param file formData file true "附件"
// @Success 201 {object} util.Response{data=model.AnswerAttachment}
// @Router /api/answers/{id}/attachments [post]
func (c *AnswerController) UploadAttachment(ctx *gin.Context) {
	answerID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	att, err := c.AnswerService.UploadAttachment(
		ctx.Request.Context(),
		answerID,
		file.Filename,
		file.Header.Get("Content-Type"),
		file.Size,
		src,
	)
	if err != nil {
		if errors.Is(err, util.ErrAnswerNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, att)
}
