package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Automation AutomationConfig `mapstructure:"automation"`
	Log        LogConfig        `mapstructure:"log"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

// DatabaseConfig 数据库配置（sqlite 本地开发 / postgres 生产）
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite, postgres
	DSN      string `mapstructure:"dsn"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig 缓存配置
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	FeedTTL  time.Duration `mapstructure:"feed_ttl"`
}

// LLMConfig 生成服务配置（含外部限流参数）
type LLMConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MinRequestGap   time.Duration `mapstructure:"min_request_gap"`
	MaxPerMinute    int           `mapstructure:"max_per_minute"`
	QuotaWindow     time.Duration `mapstructure:"quota_window"`
	QuotaRetryDelay time.Duration `mapstructure:"quota_retry_delay"`
	QueueSize       int           `mapstructure:"queue_size"`
}

// AutomationConfig 调度器默认参数（首次启动写入 settings 表）
type AutomationConfig struct {
	PostScanInterval      time.Duration `mapstructure:"post_scan_interval"`
	InteractionInterval   time.Duration `mapstructure:"interaction_interval"`
	HumanEventInterval    time.Duration `mapstructure:"human_event_interval"`
	EligibilityFloor      time.Duration `mapstructure:"eligibility_floor"`
	MaxPostsPerTrigger    int           `mapstructure:"max_posts_per_trigger"`
	MaxCommentsPerTrigger int           `mapstructure:"max_comments_per_trigger"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json, console
}

// SentryConfig 错误上报配置，DSN 为空则不启用
type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Load 读取配置文件并应用环境变量覆盖（AICOMMUNITY_ 前缀）
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ai-community")

	v.SetEnvPrefix("AICOMMUNITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺省时仅用默认值+环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "ai_community.db")
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.feed_ttl", 30*time.Second)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.request_timeout", 75*time.Second)
	v.SetDefault("llm.min_request_gap", 3*time.Second)
	v.SetDefault("llm.max_per_minute", 20)
	v.SetDefault("llm.quota_window", time.Minute)
	v.SetDefault("llm.quota_retry_delay", 5*time.Second)
	v.SetDefault("llm.queue_size", 256)

	v.SetDefault("automation.post_scan_interval", time.Minute)
	v.SetDefault("automation.interaction_interval", 2*time.Minute)
	v.SetDefault("automation.human_event_interval", time.Minute)
	v.SetDefault("automation.eligibility_floor", 3*time.Minute)
	v.SetDefault("automation.max_posts_per_trigger", 3)
	v.SetDefault("automation.max_comments_per_trigger", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")

	v.SetDefault("sentry.dsn", "")
}
