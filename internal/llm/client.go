package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/news_analysis/internal/config"
	"github.com/iWorld-y/news_analysis/internal/logger"
)

// DefaultMaxRetries 默认总尝试次数
const DefaultMaxRetries = 3

// Request 单次补全请求
type Request struct {
	Prompt       string
	SystemPrompt string
	JSONMode     bool
	MaxRetries   int
}

// Analyzer 发起补全请求并返回原始文本
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// Client 基于 eino ChatModel 的模型客户端，负责重试、退避与错误分类
type Client struct {
	textModel  model.BaseChatModel
	jsonModel  model.BaseChatModel
	limiter    *rate.Limiter
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option 客户端选项
type Option func(*Client)

// WithLimiter 每次尝试前等待限流器，nil 表示不限流
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMaxRetries 设置请求未指定时的默认尝试次数
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithSleep 替换退避等待函数
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// New 按配置创建 OpenAI 兼容的文本模型与 JSON 模式模型
func New(ctx context.Context, cfg config.LLMConfig, opts ...Option) (*Client, error) {
	temperature := cfg.Temperature
	base := openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Timeout:     cfg.RequestTimeout(),
		Temperature: &temperature,
	}

	textModel, err := openai.NewChatModel(ctx, &base)
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	jsonCfg := base
	jsonCfg.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	jsonModel, err := openai.NewChatModel(ctx, &jsonCfg)
	if err != nil {
		return nil, fmt.Errorf("LLM JSON 模式初始化失败: %w", err)
	}

	opts = append([]Option{WithMaxRetries(cfg.MaxRetries)}, opts...)
	return NewWithModels(textModel, jsonModel, opts...), nil
}

// NewWithModels 使用已有的模型实例创建客户端，jsonModel 为空时复用 textModel
func NewWithModels(textModel, jsonModel model.BaseChatModel, opts ...Option) *Client {
	if jsonModel == nil {
		jsonModel = textModel
	}
	c := &Client{
		textModel:  textModel,
		jsonModel:  jsonModel,
		maxRetries: DefaultMaxRetries,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewLimiter 按每分钟请求数与突发量创建限流器
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	if cfg.RPM <= 0 {
		return nil
	}
	burst := cfg.QPS
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), burst)
}

// Analyze 发送请求，对限流、超时和服务端错误按退避策略重试
func (c *Client) Analyze(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", &Error{Kind: KindUnclassified, Err: fmt.Errorf("empty prompt")}
	}

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = c.maxRetries
	}

	cm := c.textModel
	if req.JSONMode {
		cm = c.jsonModel
	}
	messages := buildMessages(req)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		log := logger.Component("llm").WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_retries": maxRetries,
			"json_mode":   req.JSONMode,
		})

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", &Error{Kind: classify(err), Attempts: attempt, Err: err}
			}
		}

		start := time.Now()
		content, err := generate(ctx, cm, messages)
		if err == nil {
			log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("模型调用成功")
			return content, nil
		}

		kind := classify(err)
		lastErr = &Error{Kind: kind, Attempts: attempt, Err: err}
		if !kind.Transient() {
			log.WithField("kind", kind).Errorf("模型调用失败，不可重试: %v", err)
			return "", lastErr
		}
		if attempt == maxRetries {
			log.WithField("kind", kind).Errorf("模型调用失败，已达最大尝试次数: %v", err)
			break
		}

		delay := backoff(kind, attempt)
		log.WithFields(logrus.Fields{"kind": kind, "delay": delay}).Warnf("模型调用失败，等待后重试: %v", err)
		if err := c.sleep(ctx, delay); err != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

// backoff 第 n 次重试前的等待时长：限流为 2^(n-1) 秒，其余为 1 秒
func backoff(kind Kind, attempt int) time.Duration {
	if kind == KindRateLimited {
		return time.Duration(1<<(attempt-1)) * time.Second
	}
	return time.Second
}

func buildMessages(req Request) []*schema.Message {
	messages := make([]*schema.Message, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: req.SystemPrompt})
	}
	return append(messages, &schema.Message{Role: schema.User, Content: req.Prompt})
}

func generate(ctx context.Context, cm model.BaseChatModel, messages []*schema.Message) (string, error) {
	resp, err := cm.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", errEmptyResponse
	}
	return StripCodeFence(resp.Content), nil
}

// StripCodeFence 去除模型返回内容外层的 ```json 代码块标记
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
