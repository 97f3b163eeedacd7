package controller

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"modtraining_backend/internal/model"
	"modtraining_backend/internal/service"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/logger"
)

type AdminController struct {
	Review            *service.ReviewService
	InteractionSecret string
}

func NewAdminController(review *service.ReviewService, interactionSecret string) *AdminController {
	return &AdminController{Review: review, InteractionSecret: interactionSecret}
}

// AdminActionRequest 审核操作，action 为 accept/deny（兼容 accepted/denied）
// swagger:model AdminActionRequest
type AdminActionRequest struct {
	SubmissionID string `json:"submission_id" binding:"required"`
	Action       string `json:"action" binding:"required"`
}

// InteractionActionRequest Discord 按钮回调，由 bot 转发
// swagger:model InteractionActionRequest
type InteractionActionRequest struct {
	SubmissionID string `json:"submission_id" binding:"required"`
	Action       string `json:"action" binding:"required"`
	AdminUserID  string `json:"admin_user_id" binding:"required"`
}

func respondReviewed(ctx *gin.Context, sub *model.Submission) {
	ctx.JSON(http.StatusOK, util.Response{
		Code:    http.StatusOK,
		Message: "Submission " + string(sub.Status),
		Data:    sub,
	})
}

// @Summary 审核提交
// @Description pending 状态的提交只能审核一次，重复操作返回 409
// @Tags 审核
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AdminActionRequest true "审核操作"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/action [post]
func (c *AdminController) Action(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AdminActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.Review.ApplyAction(ctx.Request.Context(), user.UserID, req.SubmissionID, req.Action)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	respondReviewed(ctx, sub)
}

// @Summary 审核统计
// @Tags 审核
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ReviewStats}
// @Router /api/admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.Review.Stats(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary Discord 按钮审核
// @Description bot 转发的 approve/deny 按钮事件，admin_user_id 同样需要在白名单中
// @Tags 审核
// @Accept json
// @Produce json
// @Param X-Interaction-Secret header string true "共享密钥"
// @Param body body InteractionActionRequest true "审核操作"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 401 {object} util.Response
// @Router /api/webhook/action [post]
func (c *AdminController) InteractionAction(ctx *gin.Context) {
	given := ctx.GetHeader(util.InteractionSecretHeader)
	if c.InteractionSecret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(c.InteractionSecret)) != 1 {
		logger.Log.Warn("interaction rejected: bad secret", zap.String("ip", ctx.ClientIP()))
		util.Unauthorized(ctx)
		return
	}

	var req InteractionActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.Review.ApplyAction(ctx.Request.Context(), req.AdminUserID, req.SubmissionID, req.Action)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	respondReviewed(ctx, sub)
}
