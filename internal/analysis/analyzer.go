package analysis

import (
	"context"
	"fmt"

	"github.com/iWorld-y/news_analysis/internal/llm"
	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

// MaxInputLength 送入模型的新闻文本字符上限
const MaxInputLength = 8000

// SentimentAnalyzer 市场情绪分析
type SentimentAnalyzer struct {
	client   llm.Analyzer
	maxInput int
}

// NewSentimentAnalyzer 创建情绪分析器，maxInput <= 0 时使用默认上限
func NewSentimentAnalyzer(client llm.Analyzer, maxInput int) *SentimentAnalyzer {
	return &SentimentAnalyzer{client: client, maxInput: inputLimit(maxInput)}
}

// Analyze 分析新闻文本的市场情绪，任何失败都原样向上返回
func (a *SentimentAnalyzer) Analyze(ctx context.Context, content string) (*model.Sentiment, error) {
	resp, err := a.client.Analyze(ctx, llm.Request{
		Prompt:       fmt.Sprintf(sentimentUserPrompt, model.TruncateRunes(content, a.maxInput)),
		SystemPrompt: sentimentSystemPrompt,
		JSONMode:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis: %w", err)
	}

	sentiment, err := model.ParseSentiment([]byte(resp))
	if err != nil {
		logger.Component("sentiment").Errorf("情绪分析结果校验失败: %v", err)
		return nil, fmt.Errorf("sentiment analysis: %w", err)
	}

	logger.Component("sentiment").Infof("情绪分析完成: %s (%d/100)", sentiment.Category, sentiment.Score)
	return sentiment, nil
}

// TrendAnalyzer 经济发展趋势分析
type TrendAnalyzer struct {
	client   llm.Analyzer
	maxInput int
}

// NewTrendAnalyzer 创建趋势分析器
func NewTrendAnalyzer(client llm.Analyzer, maxInput int) *TrendAnalyzer {
	return &TrendAnalyzer{client: client, maxInput: inputLimit(maxInput)}
}

// Analyze 分析新闻文本的经济发展趋势
func (a *TrendAnalyzer) Analyze(ctx context.Context, content string) (*model.Trend, error) {
	resp, err := a.client.Analyze(ctx, llm.Request{
		Prompt:       fmt.Sprintf(trendUserPrompt, model.TruncateRunes(content, a.maxInput)),
		SystemPrompt: trendSystemPrompt,
		JSONMode:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("trend analysis: %w", err)
	}

	trend, err := model.ParseTrend([]byte(resp))
	if err != nil {
		logger.Component("trend").Errorf("趋势分析结果校验失败: %v", err)
		return nil, fmt.Errorf("trend analysis: %w", err)
	}

	logger.Component("trend").Info("趋势分析完成")
	return trend, nil
}

func inputLimit(n int) int {
	if n <= 0 {
		return MaxInputLength
	}
	return n
}
