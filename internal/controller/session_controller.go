package controller

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"modtraining_backend/internal/service"
	"modtraining_backend/internal/util"
)

type SessionController struct {
	Service *service.SessionService
}

func NewSessionController(svc *service.SessionService) *SessionController {
	return &SessionController{Service: svc}
}

// SessionAnswerRequest 当前题目输入框中的内容，可以为空
// swagger:model SessionAnswerRequest
type SessionAnswerRequest struct {
	Answer string `json:"answer"`
}

func bindAnswer(ctx *gin.Context) (string, bool) {
	var req SessionAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.BadRequest(ctx, err.Error())
		return "", false
	}
	return req.Answer, true
}

// @Summary 开始答题
// @Description 新建答题会话，覆盖未提交的旧会话
// @Tags 考核
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/session/start [post]
func (c *SessionController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.Start(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 当前答题进度
// @Tags 考核
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /api/session [get]
func (c *SessionController) Current(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.Current(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 下一题
// @Description 保存当前答案并前进，最后一题时停留
// @Tags 考核
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SessionAnswerRequest true "当前答案"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/session/next [post]
func (c *SessionController) Next(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	answer, ok := bindAnswer(ctx)
	if !ok {
		return
	}

	view, err := c.Service.Next(ctx.Request.Context(), user.UserID, answer)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 上一题
// @Description 保存当前答案并返回上一题，恢复之前填写的内容
// @Tags 考核
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SessionAnswerRequest true "当前答案"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/session/previous [post]
func (c *SessionController) Previous(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	answer, ok := bindAnswer(ctx)
	if !ok {
		return
	}

	view, err := c.Service.Previous(ctx.Request.Context(), user.UserID, answer)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 提交答题
// @Description 评分并进入审核队列；写入失败时会话保留，可重试
// @Tags 考核
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SessionAnswerRequest true "当前答案"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 503 {object} util.Response
// @Router /api/session/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	answer, ok := bindAnswer(ctx)
	if !ok {
		return
	}

	sub, err := c.Service.Submit(ctx.Request.Context(), service.SubmitterFromClaims(user), answer)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}
