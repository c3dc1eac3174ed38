package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件路径，不存在时仅使用默认值与环境变量
const DefaultPath = "configs/config.yaml"

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Storage     StorageConfig     `yaml:"storage"`
	News        NewsConfig        `yaml:"news"`
	Feishu      FeishuConfig      `yaml:"feishu"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Server      ServerConfig      `yaml:"server"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Timeout     int     `yaml:"timeout"` // 秒
	Temperature float32 `yaml:"temperature"`
	MaxRetries  int     `yaml:"max_retries"`
}

// RequestTimeout 单次请求超时
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// StorageConfig 目录配置，相对路径基于 Root 解析
type StorageConfig struct {
	Root        string `yaml:"root"`
	AnalysisDir string `yaml:"analysis_dir"`
	NewsDir     string `yaml:"news_dir"`
	ResultsDir  string `yaml:"results_dir"`
}

// NewsConfig 新闻输入配置
type NewsConfig struct {
	SourceURL      string `yaml:"source_url"` // 支持 {date} 占位符
	SearchAPIKey   string `yaml:"search_api_key"` // Tavily，为空时不启用搜索兜底
	SearchEndpoint string `yaml:"search_endpoint"`
	MinLength      int    `yaml:"min_length"`
	MaxInput       int    `yaml:"max_input"`
}

// FeishuConfig 飞书机器人配置
type FeishuConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Enabled    bool   `yaml:"enabled"`
	Timeout    int    `yaml:"timeout"` // 秒
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置，DSN 为空时不启用
type DBConfig struct {
	DSN string `yaml:"dsn"`
}

// ScheduleConfig 定时任务配置
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// Location 解析时区，失败时回退到本地时区
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			Timeout:     300,
			Temperature: 0.7,
			MaxRetries:  3,
		},
		Storage: StorageConfig{
			Root:        ".",
			AnalysisDir: "news/analysis",
			NewsDir:     "news",
			ResultsDir:  "results",
		},
		News: NewsConfig{
			MinLength: 10,
			MaxInput:  8000,
		},
		Feishu: FeishuConfig{
			Timeout: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Concurrency: ConcurrencyConfig{
			QPS: 2,
			RPM: 60,
		},
		Schedule: ScheduleConfig{
			Cron:     "0 30 20 * * *",
			Timezone: "Asia/Shanghai",
		},
		Server: ServerConfig{
			Addr:    ":8000",
			Timeout: "5s",
		},
	}
}

// Load 依次应用默认值、.env、YAML 文件和环境变量
func Load(path string) (*Config, error) {
	cfg := Default()

	// .env 不存在时忽略，已存在的环境变量优先
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.resolvePaths()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "OPENAI_API_BASE_URL")
	setString(&c.LLM.Model, "OPENAI_MODEL")
	setInt(&c.LLM.Timeout, "OPENAI_TIMEOUT")

	setString(&c.Storage.AnalysisDir, "ANALYSIS_DIR")
	setString(&c.Storage.NewsDir, "NEWS_DIR")
	setString(&c.Storage.ResultsDir, "RESULTS_DIR")

	setString(&c.News.SourceURL, "NEWS_SOURCE_URL")
	setString(&c.News.SearchAPIKey, "TAVILY_API_KEY")

	setString(&c.Feishu.WebhookURL, "FEISHU_WEBHOOK_URL")
	setBool(&c.Feishu.Enabled, "FEISHU_ENABLED")

	setString(&c.DB.DSN, "DATABASE_DSN")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	setString(&c.Schedule.Cron, "SCHEDULE_CRON")
	setString(&c.Server.Addr, "HTTP_ADDR")
}

// resolvePaths 将相对目录解析为基于 Root 的绝对路径
func (c *Config) resolvePaths() {
	root := c.Storage.Root
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	c.Storage.Root = root

	def := Default().Storage
	c.Storage.AnalysisDir = resolve(root, c.Storage.AnalysisDir, def.AnalysisDir)
	c.Storage.NewsDir = resolve(root, c.Storage.NewsDir, def.NewsDir)
	c.Storage.ResultsDir = resolve(root, c.Storage.ResultsDir, def.ResultsDir)
}

func resolve(root, p, fallback string) string {
	if p == "" {
		p = fallback
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return filepath.Clean(p)
}

// Validate 校验调用模型所需的配置
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.New("缺少必需的配置项 OPENAI_API_KEY (llm.api_key)")
	}
	if c.LLM.Model == "" {
		return errors.New("缺少模型名称 OPENAI_MODEL (llm.model)")
	}
	return nil
}

// EnsureDirs 创建分析与结果目录
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Storage.AnalysisDir, c.Storage.ResultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}
