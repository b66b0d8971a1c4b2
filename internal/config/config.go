package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Draft    DraftConfig    `mapstructure:"draft"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Listing  ListingConfig  `mapstructure:"listing"`
	Submit   SubmitConfig   `mapstructure:"submit"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Port     string `mapstructure:"port"`
	Mode     string `mapstructure:"mode"` // gin 模式: debug/release/test
	Env      string `mapstructure:"env"`  // dev/production
	LogLevel string `mapstructure:"log_level"`
}

// APIConfig 远程 SureKeys API
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"` // 含 /api 前缀
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
}

// DatabaseConfig 数据库
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // postgres / sqlite
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig Redis
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DraftConfig 草稿会话
type DraftConfig struct {
	Persistence string        `mapstructure:"persistence"` // none / database / redis
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
}

// AuthConfig 登录会话
type AuthConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// UploadConfig 图片上传
type UploadConfig struct {
	MaxImageBytes int64 `mapstructure:"max_image_bytes"`
	MaxBatchFiles int   `mapstructure:"max_batch_files"`
}

// ListingConfig 房源浏览缓存
type ListingConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// SubmitConfig 提交限流
type SubmitConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Burst    int           `mapstructure:"burst"`
}

// CleanupConfig 过期会话清理
type CleanupConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

// 草稿持久化方式
const (
	PersistenceNone     = "none"
	PersistenceDatabase = "database"
	PersistenceRedis    = "redis"
)

// ==================== 加载 ====================

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.env", "dev")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", 20*time.Second)
	v.SetDefault("api.debug", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "surekeys.db")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("draft.persistence", PersistenceNone)
	v.SetDefault("draft.session_ttl", 24*time.Hour)

	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("upload.max_image_bytes", 5*1024*1024)
	v.SetDefault("upload.max_batch_files", 20)

	v.SetDefault("listing.cache_ttl", 5*time.Minute)

	v.SetDefault("submit.interval", 3*time.Second)
	v.SetDefault("submit.burst", 1)

	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.spec", "0 */10 * * * *")
}

// Load 读取配置
// 优先级：环境变量 > 配置文件 > 默认值；path 为空时在当前目录查找 config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Draft.Persistence {
	case PersistenceNone, PersistenceDatabase, PersistenceRedis:
	default:
		return fmt.Errorf("未知的草稿持久化方式: %s", c.Draft.Persistence)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.API.BaseURL == "" {
		return errors.New("api.base_url 不能为空")
	}
	if c.Upload.MaxImageBytes <= 0 {
		return errors.New("upload.max_image_bytes 必须大于 0")
	}
	return nil
}
