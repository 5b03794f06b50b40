package config

import (
	"fmt"
	"strings"

	"github.com/prato-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Queue       QueueConfig       `mapstructure:"queue"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Security    SecurityConfig    `mapstructure:"security"`
	Order       OrderConfig       `mapstructure:"order"`
	Referral    ReferralConfig    `mapstructure:"referral"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Textgen     TextgenConfig     `mapstructure:"textgen"`
	Resilience  ResilienceConfig  `mapstructure:"resilience"`
	Performance PerformanceConfig `mapstructure:"performance"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	PinLength            int `mapstructure:"pin_length"`             // 送达确认 PIN 位数
	PinMaxAttempts       int `mapstructure:"pin_max_attempts"`       // PIN 校验最大尝试次数
	PinBlockSeconds      int `mapstructure:"pin_block_seconds"`      // 尝试超限后的封禁秒数
	PendingExpireMinutes int `mapstructure:"pending_expire_minutes"` // PENDING 订单超时分钟数
}

// ReferralConfig 推荐返现配置
type ReferralConfig struct {
	BonusAmount        string  `mapstructure:"bonus_amount"`         // 推荐人奖励金额
	ReferredBonus      string  `mapstructure:"referred_bonus"`       // 被推荐人首单奖励金额
	MaxDiscountPercent float64 `mapstructure:"max_discount_percent"` // 单笔订单最大抵扣比例
	MinOrderTotal      string  `mapstructure:"min_order_total"`      // 可用返现的最低订单金额
	CodeExpiryDays     int     `mapstructure:"code_expiry_days"`     // 推荐码有效天数
	CodeLength         int     `mapstructure:"code_length"`          // 推荐码长度
}

// AuditConfig 审计日志配置
type AuditConfig struct {
	DiscountWarnPercent float64 `mapstructure:"discount_warn_percent"` // 折扣超过此比例记 warning
	ListLimitCap        int     `mapstructure:"list_limit_cap"`        // 查询单页上限
}

// GatewayConfig 支付网关配置
type GatewayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// TextgenConfig 文案生成服务配置
type TextgenConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// ResilienceConfig 外部调用重试配置
type ResilienceConfig struct {
	MaxAttempts   int `mapstructure:"max_attempts"`
	BaseBackoffMS int `mapstructure:"base_backoff_ms"`
	MaxBackoffMS  int `mapstructure:"max_backoff_ms"`
}

// PerformanceConfig 员工绩效统计配置
type PerformanceConfig struct {
	ResetHour     int    `mapstructure:"reset_hour"`     // 每日重置的小时（本地时区）
	ResetTimezone string `mapstructure:"reset_timezone"` // 重置使用的时区名
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	WriteRateLimit WriteRateLimitConfig `mapstructure:"write_rate_limit"`
}

// WriteRateLimitConfig 写接口限流配置
type WriteRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	// 设置默认值（可选）
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "server.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/prato.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "pn")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Actor-Id",
		"X-Actor-Role",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.write_rate_limit.window_seconds", 60)
	viper.SetDefault("security.write_rate_limit.max_requests", 120)
	viper.SetDefault("security.write_rate_limit.block_seconds", 300)
	viper.SetDefault("order.pin_length", 4)
	viper.SetDefault("order.pin_max_attempts", 5)
	viper.SetDefault("order.pin_block_seconds", 900)
	viper.SetDefault("order.pending_expire_minutes", 30)
	viper.SetDefault("referral.bonus_amount", "10.00")
	viper.SetDefault("referral.referred_bonus", "5.00")
	viper.SetDefault("referral.max_discount_percent", 0.5)
	viper.SetDefault("referral.min_order_total", "20.00")
	viper.SetDefault("referral.code_expiry_days", 90)
	viper.SetDefault("referral.code_length", 8)
	viper.SetDefault("audit.discount_warn_percent", 0.3)
	viper.SetDefault("audit.list_limit_cap", 200)
	viper.SetDefault("gateway.enabled", false)
	viper.SetDefault("gateway.base_url", "")
	viper.SetDefault("gateway.app_id", "")
	viper.SetDefault("gateway.app_secret", "")
	viper.SetDefault("gateway.timeout_ms", 5000)
	viper.SetDefault("textgen.enabled", false)
	viper.SetDefault("textgen.base_url", "")
	viper.SetDefault("textgen.api_key", "")
	viper.SetDefault("textgen.model", "")
	viper.SetDefault("textgen.timeout_ms", 8000)
	viper.SetDefault("resilience.max_attempts", 3)
	viper.SetDefault("resilience.base_backoff_ms", 200)
	viper.SetDefault("resilience.max_backoff_ms", 5000)
	viper.SetDefault("performance.reset_hour", 0)
	viper.SetDefault("performance.reset_timezone", "Local")

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
