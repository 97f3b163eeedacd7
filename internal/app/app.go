package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"modtraining_backend/internal/config"
	"modtraining_backend/internal/controller"
	"modtraining_backend/internal/quiz"
	"modtraining_backend/internal/repository"
	"modtraining_backend/internal/service"
	"modtraining_backend/internal/util"
	"modtraining_backend/pkg/configwatcher"
	"modtraining_backend/pkg/database"
	"modtraining_backend/pkg/identity"
	"modtraining_backend/pkg/logger"
	"modtraining_backend/pkg/monitoring"
	"modtraining_backend/pkg/notify"
	"modtraining_backend/pkg/security"
	"modtraining_backend/pkg/tracing"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	services   *services
	limiter    *security.Limiter
	dispatcher *notify.Dispatcher
	tracer     *sdktrace.TracerProvider
	cancel     context.CancelFunc
}

type repositories struct {
	user       *repository.UserRepository
	submission *repository.SubmissionRepository
	session    service.SessionStore
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	notification *service.NotificationService
	submission   *service.SubmissionService
	session      *service.SessionService
	review       *service.ReviewService
}

type controllers struct {
	auth       *controller.AuthController
	question   *controller.QuestionController
	session    *controller.SessionController
	submission *controller.SubmissionController
	admin      *controller.AdminController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	repos := &repositories{
		user:       repository.NewUserRepository(db),
		submission: repository.NewSubmissionRepository(db),
	}
	// 未启用 Redis 时会话只保存在本进程内
	if rdb != nil {
		repos.session = repository.NewSessionRepository(rdb, a.Config.Redis.SessionTTL())
	} else {
		repos.session = repository.NewMemorySessionRepository()
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	bank := quiz.DefaultBank()
	scorer := quiz.NewScorer(bank,
		quiz.WithKeywordThreshold(cfg.Assessment.KeywordThreshold),
		quiz.WithPassMark(cfg.Assessment.PassThreshold),
	)
	admins := service.NewAdminAllowList(cfg.Admin.DiscordIDs)
	if admins.Len() == 0 {
		logger.Log.Warn("admin allow-list is empty, review endpoints will reject everyone")
	}

	discord := notify.NewClient(cfg.Discord.WebhookURL, cfg.Discord.BotURL, cfg.Discord.RoleName, cfg.Server.FrontendURL)
	provider := identity.NewDiscordProvider(cfg.Discord.ClientID, cfg.Discord.ClientSecret, cfg.Discord.RedirectURL, cfg.Discord.APIBase)

	s.storage = service.NewStorageService(cfg)
	s.notification = service.NewNotificationService(a.dispatcher, discord, s.storage)
	s.submission = service.NewSubmissionService(repos.submission, scorer, s.notification)
	s.session = service.NewSessionService(repos.session, s.submission)
	s.review = service.NewReviewService(repos.submission, admins, s.notification)
	s.auth = service.NewAuthService(provider, repos.user, admins, cfg)

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, a.Config),
		question:   controller.NewQuestionController(quiz.DefaultBank()),
		session:    controller.NewSessionController(s.session),
		submission: controller.NewSubmissionController(s.submission, s.review),
		admin:      controller.NewAdminController(s.review, a.Config.Discord.InteractionSecret),
		health:     controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	app.limiter = security.NewLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
	app.dispatcher = notify.NewDispatcher(256)

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	go app.limiter.Run(ctx)
	app.dispatcher.Start(ctx)

	// 限流参数支持热更新；管理员白名单等其余配置需要重启
	if cfg.ConfigDir != "" {
		limiter := app.limiter
		err := configwatcher.Watch(ctx, cfg.ConfigDir, func(next *config.Config) {
			window := time.Duration(next.RateLimit.WindowMinutes) * time.Minute
			limiter.SetRate(next.RateLimit.MaxRequests, window)
			logger.Log.Info("Rate limit updated",
				zap.Int("max_requests", next.RateLimit.MaxRequests),
				zap.Duration("window", window))
		})
		if err != nil {
			logger.Log.Warn("Config watcher disabled", zap.Error(err))
		}
	}

	repos := app.initRepositories(db, app.Redis)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinLogger(func(c *gin.Context) string {
		if claims := util.GetUserFromContext(c); claims != nil {
			return claims.UserID
		}
		return ""
	}))
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	logger.Log.Info("Server exiting")
}

// Close 停止后台任务并释放连接，未发送的通知会在退出前发送完
func (a *App) Close() {
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
