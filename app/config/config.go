package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	// URL 为 postgres:// 开头时走 PostgreSQL，否则视为 SQLite 文件路径
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"` // 逗号分隔
}

type WorkerConfig struct {
	// APIKey 为空时 worker 端点不做鉴权（仅限可信部署环境）
	APIKey       string `mapstructure:"api_key"`
	StaleAfter   int    `mapstructure:"stale_after_min"` // processing 超过多少分钟视为滞留
	RequeueStale bool   `mapstructure:"requeue_stale"`   // 是否把滞留任务重置回 pending
}

type WebhookConfig struct {
	URL     string `mapstructure:"url"`         // 为空时不发送通知
	Timeout int    `mapstructure:"timeout_sec"` // 请求超时（秒）
}

func Load() *Config {
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("无法解码配置: %v", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		log.Fatalf("配置验证失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置
func setDefaults() {
	viper.SetDefault("server.port", "8000")

	viper.SetDefault("database.url", "data/transcribe.db")

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	viper.SetDefault("cors.allowed_origins", "http://localhost:3000,http://localhost:5173")

	// worker 默认配置
	viper.SetDefault("worker.api_key", "")
	viper.SetDefault("worker.stale_after_min", 30)
	viper.SetDefault("worker.requeue_stale", false)

	viper.SetDefault("webhook.url", "")
	viper.SetDefault("webhook.timeout_sec", 10)
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.Database.URL == "" {
		return fmt.Errorf("数据库地址未设置")
	}
	if config.Worker.StaleAfter <= 0 {
		return fmt.Errorf("worker.stale_after_min 必须为正数")
	}
	return nil
}

// CORSOrigins 返回拆分后的允许来源列表
func (c *Config) CORSOrigins() []string {
	parts := strings.Split(c.CORS.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

// IsPostgres 判断数据库地址是否指向 PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://")
}
