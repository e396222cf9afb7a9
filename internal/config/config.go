package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 主配置结构
type Config struct {
	App          App          `yaml:"app"`
	Server       Server       `yaml:"server"`
	Database     DB           `yaml:"database"`
	Cache        Cache        `yaml:"cache"`
	Auth         Auth         `yaml:"auth"`
	RateLimit    Limit        `yaml:"rate_limit"`
	Shortener    Shortener    `yaml:"shortener"`
	SafeBrowsing SafeBrowsing `yaml:"safe_browsing"`
	Log          Log          `yaml:"log"`
	CORS         CORS         `yaml:"cors"`
}

// 应用配置
type App struct {
	Name    string `yaml:"name"`
	Mode    string `yaml:"mode"`
	Version string `yaml:"version"`
	// BaseURL 是短链接对外的前缀，例如 https://dev4url.cc
	BaseURL string `yaml:"base_url"`
	// Aliases 是服务自身的其他域名，提交这些域名下的链接同样视为自引用
	Aliases []string `yaml:"aliases"`
}

// 服务器配置
type Server struct {
	Port            int `yaml:"port"`
	ReadTimeout     int `yaml:"read_timeout"`
	WriteTimeout    int `yaml:"write_timeout"`
	IdleTimeout     int `yaml:"idle_timeout"`
	RequestTimeout  int `yaml:"request_timeout"`
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

// 数据库配置
type DB struct {
	Driver   string `yaml:"driver"` // mysql / postgres / sqlite
	DSN      string `yaml:"dsn"`    // 设置后优先于 host/port 等字段
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	SSLMode  string `yaml:"ssl_mode"`

	MaxOpenConns    int `yaml:"max_open_conns"`
	MaxIdleConns    int `yaml:"max_idle_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"` // 分钟
}

// 缓存配置（Redis + 本地缓存）
type Cache struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTL        int    `yaml:"ttl"` // 秒
	LocalItems int64  `yaml:"local_items"`
	LocalTTL   int    `yaml:"local_ttl"` // 秒
}

// 认证配置
type Auth struct {
	Secret          string `yaml:"secret"`
	Issuer          string `yaml:"issuer"`
	ExpirationHours int    `yaml:"expiration_hours"`
	AdminUsername   string `yaml:"admin_username"`
	AdminPassword   string `yaml:"admin_password"`
}

// 限流配置
type Limit struct {
	Enabled   bool     `yaml:"enabled"`
	Requests  float64  `yaml:"requests_per_second"`
	Burst     int      `yaml:"burst"`
	SkipPaths []string `yaml:"skip_paths"`
	IdleTTL   int      `yaml:"idle_ttl"` // 秒，超过该时间没有请求的 IP 限流器会被清理
}

// 短码生成配置
type Shortener struct {
	CodeLength  int `yaml:"code_length"`
	MaxAttempts int `yaml:"max_attempts"`
}

// Safe Browsing 配置
type SafeBrowsing struct {
	Enabled      bool   `yaml:"enabled"`
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	ClientID     string `yaml:"client_id"`
	Timeout      int    `yaml:"timeout_ms"`
	RetryCount   int    `yaml:"retry_count"`
	FailOpen     bool   `yaml:"fail_open"`
	BlockPrivate bool   `yaml:"block_private_ips"`
}

// 日志配置
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

// 跨域配置
type CORS struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// Load 加载配置：YAML 文件 -> .env -> 环境变量 -> 默认值
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// 没有配置文件时只使用默认值和环境变量
	default:
		return nil, err
	}

	_ = godotenv.Load() // .env 文件可选
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回开发环境可直接运行的默认配置
func Default() *Config {
	return &Config{
		App: App{
			Name:    "shortlink-service",
			Mode:    "development",
			Version: "1.0.0",
			BaseURL: "http://localhost:8080",
		},
		Server: Server{
			Port:            8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			RequestTimeout:  10,
			ShutdownTimeout: 30,
		},
		Database: DB{
			Driver: "sqlite",
			Name:   "shortlink.db",
		},
		Cache: Cache{
			Port:       6379,
			TTL:        24 * 60 * 60,
			LocalItems: 10000,
			LocalTTL:   300,
		},
		Auth: Auth{
			Issuer:          "shortlink-service",
			ExpirationHours: 24,
			AdminUsername:   "admin",
		},
		RateLimit: Limit{
			Enabled:   true,
			Requests:  3,
			Burst:     5,
			SkipPaths: []string{"/health", "/metrics", "/swagger"},
			IdleTTL:   600,
		},
		Shortener: Shortener{
			CodeLength:  7,
			MaxAttempts: 5,
		},
		SafeBrowsing: SafeBrowsing{
			Endpoint:     "https://safebrowsing.googleapis.com/v4/threatMatches:find",
			ClientID:     "shortlink-service",
			Timeout:      3000,
			RetryCount:   2,
			FailOpen:     true,
			BlockPrivate: true,
		},
		Log: Log{
			Level:   "info",
			Console: true,
		},
		CORS: CORS{
			AllowOrigins: []string{"http://localhost:3000"},
		},
	}
}

// applyEnv 使用环境变量覆盖配置文件中的值
func (c *Config) applyEnv() {
	if v := os.Getenv("APP_MODE"); v != "" {
		c.App.Mode = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.App.BaseURL = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Host = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv("SAFE_BROWSING_API_KEY"); v != "" {
		c.SafeBrowsing.APIKey = v
		c.SafeBrowsing.Enabled = true
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Auth.AdminPassword = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowOrigins = origins
	}
}

// applyDefaults 为配置文件里写成 0 的字段补上默认值
func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if c.Shortener.CodeLength <= 0 {
		c.Shortener.CodeLength = def.Shortener.CodeLength
	}
	if c.Shortener.MaxAttempts <= 0 {
		c.Shortener.MaxAttempts = def.Shortener.MaxAttempts
	}
	if c.SafeBrowsing.Timeout <= 0 {
		c.SafeBrowsing.Timeout = def.SafeBrowsing.Timeout
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = def.Cache.TTL
	}
	// local_ttl 为 0 时本地缓存永不过期，删除后其他实例会一直命中旧值
	if c.Cache.LocalTTL <= 0 {
		c.Cache.LocalTTL = def.Cache.LocalTTL
	}
	if c.Cache.LocalItems <= 0 {
		c.Cache.LocalItems = def.Cache.LocalItems
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = def.RateLimit.Requests
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	c.App.BaseURL = strings.TrimRight(c.App.BaseURL, "/")
}

// Validate 校验配置的合法性
func (c *Config) Validate() error {
	u, err := url.Parse(c.App.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("app.base_url 必须是绝对地址: %q", c.App.BaseURL)
	}
	if c.Shortener.CodeLength < 6 || c.Shortener.CodeLength > 12 {
		return fmt.Errorf("shortener.code_length 必须在 6-12 之间: %d", c.Shortener.CodeLength)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}
	if c.SafeBrowsing.Enabled && c.SafeBrowsing.APIKey == "" {
		return errors.New("safe_browsing.enabled 需要配置 api_key")
	}
	if c.App.Mode == "production" && c.Auth.Secret == "" {
		return errors.New("生产环境必须配置 auth.secret")
	}
	return nil
}

// PublicHost 返回 base_url 的主机名（不含端口）
func (c *Config) PublicHost() string {
	u, err := url.Parse(c.App.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (s Server) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (s Server) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

func (s SafeBrowsing) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Millisecond
}
