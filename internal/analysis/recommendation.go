package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iWorld-y/news_analysis/internal/llm"
	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

const (
	maxRecommendations = 3
	promptIndustries   = 5
	promptPolicies     = 3
)

// RecommendationEngine 基于情绪与趋势生成投资建议，失败时返回兜底建议
type RecommendationEngine struct {
	client llm.Analyzer
}

func NewRecommendationEngine(client llm.Analyzer) *RecommendationEngine {
	return &RecommendationEngine{client: client}
}

type recommendationsPayload struct {
	Recommendations []json.RawMessage `json:"recommendations"`
}

// Generate 返回 1 到 3 条建议，不返回错误
func (e *RecommendationEngine) Generate(ctx context.Context, sentiment model.Sentiment, trends model.Trend) []model.Recommendation {
	log := logger.Component("recommendation")

	recs, err := e.generate(ctx, sentiment, trends)
	if err != nil {
		log.Errorf("生成投资建议失败，使用默认建议: %v", err)
		return []model.Recommendation{model.DefaultRecommendation()}
	}
	if len(recs) == 0 {
		log.Warn("模型未返回投资建议，使用默认建议")
		return []model.Recommendation{model.DefaultRecommendation()}
	}

	log.Infof("生成 %d 条投资建议", len(recs))
	return recs
}

func (e *RecommendationEngine) generate(ctx context.Context, sentiment model.Sentiment, trends model.Trend) ([]model.Recommendation, error) {
	resp, err := e.client.Analyze(ctx, llm.Request{
		Prompt:       fmt.Sprintf(recommendationUserPrompt, summarize(sentiment, trends)),
		SystemPrompt: recommendationSystemPrompt,
		JSONMode:     true,
	})
	if err != nil {
		return nil, err
	}

	var payload recommendationsPayload
	if err := json.Unmarshal([]byte(resp), &payload); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}

	items := payload.Recommendations
	if len(items) > maxRecommendations {
		items = items[:maxRecommendations]
	}

	recs := make([]model.Recommendation, 0, len(items))
	for _, item := range items {
		rec, err := model.ParseRecommendation(item)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

func summarize(sentiment model.Sentiment, trends model.Trend) string {
	return fmt.Sprintf(recommendationSummaryPrompt,
		sentiment.Category, sentiment.Score, sentiment.Intensity,
		trends.Summary,
		joinOrNone(trends.Industries, promptIndustries),
		joinOrNone(trends.Policies, promptPolicies),
	)
}

func joinOrNone(items []string, n int) string {
	if len(items) == 0 {
		return "无"
	}
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
