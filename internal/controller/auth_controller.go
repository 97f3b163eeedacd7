package controller

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"modtraining_backend/internal/config"
	"modtraining_backend/internal/service"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/logger"
)

const oauthStateMaxAge = 600

type AuthController struct {
	AuthService  *service.AuthService
	FrontendURL  string
	SecureCookie bool
	TokenMaxAge  int
}

func NewAuthController(authService *service.AuthService, cfg *config.Config) *AuthController {
	return &AuthController{
		AuthService:  authService,
		FrontendURL:  strings.TrimRight(cfg.Server.FrontendURL, "/"),
		SecureCookie: cfg.Server.Mode == "release",
		TokenMaxAge:  int(cfg.JWT.ExpireTime.Seconds()),
	}
}

func (c *AuthController) setCookie(ctx *gin.Context, name, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(name, value, maxAge, "/", "", c.SecureCookie, true)
}

func (c *AuthController) redirectLoginError(ctx *gin.Context, reason string) {
	ctx.Redirect(http.StatusFound, c.FrontendURL+"/login?error="+url.QueryEscape(reason))
}

// @Summary Discord 登录
// @Description 跳转到 Discord 授权页面
// @Tags 认证
// @Success 302
// @Router /api/auth/discord/login [get]
func (c *AuthController) DiscordLogin(ctx *gin.Context) {
	authURL, state := c.AuthService.LoginURL()
	c.setCookie(ctx, util.OAuthStateCookie, state, oauthStateMaxAge)
	ctx.Redirect(http.StatusFound, authURL)
}

// @Summary Discord 授权回调
// @Description 校验 state，换取身份后签发会话并跳转到答题页
// @Tags 认证
// @Param code query string true "授权码"
// @Param state query string true "state"
// @Success 302
// @Router /api/auth/discord/callback [get]
func (c *AuthController) DiscordCallback(ctx *gin.Context) {
	if reason := ctx.Query("error"); reason != "" {
		c.redirectLoginError(ctx, reason)
		return
	}

	state, err := ctx.Cookie(util.OAuthStateCookie)
	if err != nil || state == "" || state != ctx.Query("state") {
		c.redirectLoginError(ctx, "invalid_state")
		return
	}
	c.setCookie(ctx, util.OAuthStateCookie, "", -1)

	res, err := c.AuthService.CompleteLogin(ctx.Request.Context(), ctx.Query("code"))
	if err != nil {
		logger.Log.Warn("discord login failed", zap.Error(err))
		switch {
		case errors.Is(err, util.ErrUpstreamUnavailable):
			c.redirectLoginError(ctx, "session_pending")
		case errors.Is(err, util.ErrUnauthenticated), errors.Is(err, util.ErrValidation):
			c.redirectLoginError(ctx, "unauthorized")
		default:
			c.redirectLoginError(ctx, "login_failed")
		}
		return
	}

	c.setCookie(ctx, util.SessionCookie, res.Token, c.TokenMaxAge)
	ctx.Redirect(http.StatusFound, c.FrontendURL+"/test")
}

// @Summary 当前会话
// @Description 未登录时 isAuthenticated=false，不返回 401
// @Tags 认证
// @Produce json
// @Success 200 {object} util.Response{data=service.SessionInfo}
// @Router /api/auth/session [get]
func (c *AuthController) Session(ctx *gin.Context) {
	util.Success(ctx, c.AuthService.CurrentSession(util.GetUserFromContext(ctx)))
}

// @Summary 退出登录
// @Tags 认证
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	c.setCookie(ctx, util.SessionCookie, "", -1)
	util.Success(ctx, nil)
}
