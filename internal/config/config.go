package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/user/yamdb/internal/logging"
	"github.com/user/yamdb/internal/mail"
)

const defaultSecret = "your-secret-key-change-in-production"

// DBConfig 数据库连接参数，DATABASE_URL 优先
type DBConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
}

// LogConfig 日志参数
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config 应用配置
type Config struct {
	Env            string      `koanf:"app_env"`
	AppSecret      string      `koanf:"app_secret"`
	DatabaseURL    string      `koanf:"database_url"`
	DB             DBConfig    `koanf:"db"`
	JWTExpiryHours int         `koanf:"jwt_expiry_hours"`
	Port           string      `koanf:"port"`
	SMTP           mail.Config `koanf:"smtp"`
	Log            LogConfig   `koanf:"log"`
}

func defaults() Config {
	return Config{
		Env:       "development",
		AppSecret: defaultSecret,
		DB: DBConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "yamdb",
			SSLMode:  "disable",
		},
		JWTExpiryHours: 24,
		Port:           "8000",
		SMTP:           mail.Config{Port: 587, From: "YaMDb <noreply@yamdb.local>", UseTLS: true},
		Log:            LogConfig{Level: "info", Format: "json"},
	}
}

// 带分组的环境变量前缀：DB_HOST -> db.host
var sections = []string{"db", "smtp", "log"}

// flat 不分组的环境变量
var flat = map[string]bool{
	"app_env":          true,
	"app_secret":       true,
	"database_url":     true,
	"jwt_expiry_hours": true,
	"port":             true,
}

func envKey(s string) string {
	key := strings.ToLower(s)
	if flat[key] {
		return key
	}
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return ""
}

// Load 加载配置：默认值 < .env < 环境变量
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logging.Debug().Err(err).Msg("未加载 .env 文件")
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("加载默认配置失败: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppSecret == defaultSecret {
		logging.Warn().Msg("正在使用默认密钥，请设置 APP_SECRET 环境变量")
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.JWTExpiryHours <= 0 {
		return errors.New("JWT_EXPIRY_HOURS 必须为正数")
	}
	if c.IsProduction() && c.AppSecret == defaultSecret {
		return errors.New("生产环境必须设置 APP_SECRET")
	}
	if c.AppSecret == "" {
		return errors.New("APP_SECRET 不能为空")
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// JWTExpiry 令牌有效期
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// DSN 数据库连接串
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     c.DB.Host + ":" + c.DB.Port,
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

// Logging 日志初始化参数
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
