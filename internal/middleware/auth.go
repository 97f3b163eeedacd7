package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"modtraining_backend/internal/config"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/logger"
)

// tokenFromRequest 依次读取 Authorization 头、token 参数、会话 cookie
func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if cookie, err := c.Cookie(util.SessionCookie); err == nil {
		return cookie
	}
	return ""
}

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, claims)
		c.Next()
	}
}

// TryAuthMiddleware 可选认证：token 有效时写入 claims，否则匿名放行
func TryAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret); err == nil {
				c.Set(util.ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

type AdminChecker interface {
	IsAdmin(callerID string) bool
}

// AdminMiddleware 只做入口拦截，服务层每次操作仍会重新校验白名单
func AdminMiddleware(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !admins.IsAdmin(user.UserID) {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
