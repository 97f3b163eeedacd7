package controller

import (
	"github.com/gin-gonic/gin"

	"modtraining_backend/internal/service"
	"modtraining_backend/internal/util"
)

type SubmissionController struct {
	Submissions *service.SubmissionService
	Review      *service.ReviewService
}

func NewSubmissionController(submissions *service.SubmissionService, review *service.ReviewService) *SubmissionController {
	return &SubmissionController{Submissions: submissions, Review: review}
}

// CreateSubmissionRequest 每题一条作答文本，按题目顺序，分数由服务端计算
// swagger:model CreateSubmissionRequest
type CreateSubmissionRequest struct {
	Answers []string `json:"answers" binding:"required"`
}

// @Summary 提交考核答案
// @Description 服务端评分后写入审核队列，客户端传入的分数会被忽略
// @Tags 考核
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateSubmissionRequest true "答案列表"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 400 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/submissions [post]
func (c *SubmissionController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.Submissions.Submit(ctx.Request.Context(), service.SubmitterFromClaims(user), req.Answers)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}

// @Summary 我的提交记录
// @Tags 考核
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Submission}
// @Router /api/submissions/mine [get]
func (c *SubmissionController) ListMine(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subs, err := c.Submissions.ListMine(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}

// @Summary 提交列表（管理员）
// @Description 按创建时间倒序，可按状态过滤
// @Tags 审核
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "pending / accepted / denied"
// @Success 200 {object} util.Response{data=[]model.Submission}
// @Failure 403 {object} util.Response
// @Router /api/submissions [get]
func (c *SubmissionController) List(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	subs, err := c.Review.ListSubmissions(ctx.Request.Context(), user.UserID, ctx.Query("status"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, subs)
}

// @Summary 提交详情（管理员）
// @Tags 审核
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 404 {object} util.Response
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) Get(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	sub, err := c.Review.GetSubmission(ctx.Request.Context(), user.UserID, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}
