package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"modtraining_backend/docs"
	"modtraining_backend/internal/config"
	"modtraining_backend/internal/middleware"
	"modtraining_backend/internal/service"
	"modtraining_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. 需要登录的答题接口
	userGroup := router.Group("/api")
	userGroup.Use(middleware.AuthMiddleware(cfg))
	a.registerUserRoutes(userGroup, c)

	// 3. 管理员审核接口
	adminGroup := router.Group("/api")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(a.services.review))
	a.registerAdminRoutes(adminGroup, c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/questions", c.question.List)

		auth := public.Group("/auth")
		auth.GET("/discord/login", c.auth.DiscordLogin)
		auth.GET("/discord/callback", c.auth.DiscordCallback)
		auth.GET("/session", middleware.TryAuthMiddleware(cfg), c.auth.Session)
		auth.POST("/logout", c.auth.Logout)

		// Discord 按钮回调，使用共享密钥而不是用户 token
		public.POST("/webhook/action", c.admin.InteractionAction)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/session/start", c.session.Start)
	rg.GET("/session", c.session.Current)
	rg.POST("/session/next", c.session.Next)
	rg.POST("/session/previous", c.session.Previous)
	rg.POST("/session/submit", c.session.Submit)

	rg.POST("/submissions", c.submission.Create)
	rg.GET("/submissions/mine", c.submission.ListMine)
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/submissions", c.submission.List)
	rg.GET("/submissions/:id", c.submission.Get)
	rg.GET("/admin/stats", c.admin.Stats)
	rg.POST("/admin/action", c.admin.Action)

	// 本地归档的审核记录
	if local, ok := a.services.storage.Provider.(*service.LocalStorageProvider); ok {
		rg.Static(strings.TrimPrefix(service.LocalTranscriptRoute, "/api"), local.Config.LocalPath)
	}
}
