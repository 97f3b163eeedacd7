package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Discord     DiscordConfig
	Admin       AdminConfig
	Assessment  AssessmentConfig  `mapstructure:"assessment"`
	SessionWait SessionWaitConfig `mapstructure:"session_wait"`
	Storage     StorageConfig
	Tracing     TracingConfig   `mapstructure:"tracing"`
	CORS        CORSConfig      `mapstructure:"cors"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool   `mapstructure:"-"`
	ConfigDir   string `mapstructure:"-"`
}

type ServerConfig struct {
	Port        string
	Mode        string
	FrontendURL string `mapstructure:"frontend_url"`
	LogFile     string `mapstructure:"log_file"`
	LogLevel    string `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Driver    string // mysql | postgres | sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool   `mapstructure:"parse_time"`
	SSLMode   string `mapstructure:"sslmode"`
	Path      string // sqlite 文件路径
}

type RedisConfig struct {
	Enabled           bool
	Host              string
	Port              int
	Password          string
	DB                int
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes"`
}

func (r RedisConfig) SessionTTL() time.Duration {
	if r.SessionTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(r.SessionTTLMinutes) * time.Minute
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type DiscordConfig struct {
	ClientID          string `mapstructure:"client_id"`
	ClientSecret      string `mapstructure:"client_secret"`
	RedirectURL       string `mapstructure:"redirect_url"`
	APIBase           string `mapstructure:"api_base"`
	WebhookURL        string `mapstructure:"webhook_url"`
	BotURL            string `mapstructure:"bot_url"`
	RoleName          string `mapstructure:"role_name"`
	InteractionSecret string `mapstructure:"interaction_secret"`
}

// AdminConfig 管理员白名单，值为 Discord 用户 ID（snowflake）。
type AdminConfig struct {
	DiscordIDs []string `mapstructure:"discord_ids"`
}

type AssessmentConfig struct {
	PassThreshold    float64 `mapstructure:"pass_threshold"`
	KeywordThreshold float64 `mapstructure:"keyword_threshold"`
}

type SessionWaitConfig struct {
	Attempts   int `mapstructure:"attempts"`
	IntervalMS int `mapstructure:"interval_ms"`
	TimeoutMS  int `mapstructure:"timeout_ms"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioSecure   bool   `mapstructure:"minio_secure"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.log_file", "logs/app.log")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/modtraining.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.session_ttl_minutes", 120)

	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("discord.api_base", "https://discord.com/api")
	v.SetDefault("discord.role_name", "Verified Staff")

	v.SetDefault("assessment.pass_threshold", 80)
	v.SetDefault("assessment.keyword_threshold", 0.30)

	v.SetDefault("session_wait.attempts", 3)
	v.SetDefault("session_wait.interval_ms", 500)
	v.SetDefault("session_wait.timeout_ms", 5000)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "transcripts")

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MODTRAINING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.frontend_url", "FRONTEND_URL")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	// Discord
	v.BindEnv("discord.client_id", "DISCORD_CLIENT_ID")
	v.BindEnv("discord.client_secret", "DISCORD_CLIENT_SECRET")
	v.BindEnv("discord.redirect_url", "DISCORD_REDIRECT_URL")
	v.BindEnv("discord.webhook_url", "DISCORD_WEBHOOK_URL")
	v.BindEnv("discord.bot_url", "DISCORD_BOT_URL")
	v.BindEnv("discord.interaction_secret", "DISCORD_INTERACTION_SECRET")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// ADMIN_DISCORD_IDS=id1,id2 覆盖配置文件
	if raw := os.Getenv("ADMIN_DISCORD_IDS"); raw != "" {
		cfg.Admin.DiscordIDs = strings.Split(raw, ",")
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.ConfigDir = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验启动必需项，release 模式下更严格。
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Assessment.PassThreshold <= 0 || c.Assessment.PassThreshold > 100 {
		return fmt.Errorf("assessment.pass_threshold must be in (0,100], got %v", c.Assessment.PassThreshold)
	}
	if c.Assessment.KeywordThreshold <= 0 || c.Assessment.KeywordThreshold > 1 {
		return fmt.Errorf("assessment.keyword_threshold must be in (0,1], got %v", c.Assessment.KeywordThreshold)
	}

	if c.Server.Mode == "release" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
		}
		if len(c.Admin.DiscordIDs) == 0 {
			return errors.New("admin.discord_ids must not be empty in release mode")
		}
	}
	return nil
}

func (c *Config) SessionWaitInterval() time.Duration {
	return time.Duration(c.SessionWait.IntervalMS) * time.Millisecond
}

func (c *Config) SessionWaitTimeout() time.Duration {
	return time.Duration(c.SessionWait.TimeoutMS) * time.Millisecond
}
