package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultAnalysisVersion 报告默认版本号
	DefaultAnalysisVersion = "1.0.0"

	keyNewsPerStage = 5
)

// Report 单日完整分析报告
type Report struct {
	Date             string           `json:"date"`
	Sentiment        Sentiment        `json:"sentiment"`
	Trends           Trend            `json:"trends"`
	Recommendations  []Recommendation `json:"recommendations"`
	KeyNewsSummaries []string         `json:"key_news_summaries"`
	GeneratedAt      time.Time        `json:"generated_at"`
	AnalysisVersion  string           `json:"analysis_version"`
}

// ReportOption 报告构造选项
type ReportOption func(*Report)

// WithGeneratedAt 指定生成时间
func WithGeneratedAt(t time.Time) ReportOption {
	return func(r *Report) {
		r.GeneratedAt = t
	}
}

// WithAnalysisVersion 指定分析版本
func WithAnalysisVersion(v string) ReportOption {
	return func(r *Report) {
		if v != "" {
			r.AnalysisVersion = v
		}
	}
}

// WithKeyNewsSummaries 使用已有的要闻摘要，加载历史报告时保持原样
func WithKeyNewsSummaries(items []string) ReportOption {
	return func(r *Report) {
		if items != nil {
			r.KeyNewsSummaries = dedupe(cleanList(items))
		}
	}
}

// NewReport 按 日期 → 情绪 → 趋势 → 推荐兜底 的顺序校验并组装报告
func NewReport(date string, sentiment Sentiment, trends Trend, recs []Recommendation, opts ...ReportOption) (*Report, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	if err := sentiment.Validate(); err != nil {
		return nil, err
	}
	if err := trends.Validate(); err != nil {
		return nil, err
	}
	for i, rec := range recs {
		if err := rec.Validate(); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				field := strings.TrimPrefix(verr.Field, "recommendation.")
				return nil, &ValidationError{Field: fmt.Sprintf("recommendations[%d].%s", i, field), Rule: verr.Rule}
			}
			return nil, err
		}
	}
	if len(recs) == 0 {
		recs = []Recommendation{DefaultRecommendation()}
	}

	r := &Report{
		Date:             date,
		Sentiment:        sentiment,
		Trends:           trends,
		Recommendations:  recs,
		KeyNewsSummaries: KeyNewsSummaries(sentiment, trends),
		GeneratedAt:      time.Now(),
		AnalysisVersion:  DefaultAnalysisVersion,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// KeyNewsSummaries 取情绪与趋势各前 5 条要闻，去重并保留首次出现的顺序
func KeyNewsSummaries(sentiment Sentiment, trends Trend) []string {
	items := make([]string, 0, 2*keyNewsPerStage)
	items = append(items, head(sentiment.KeyNews, keyNewsPerStage)...)
	items = append(items, head(trends.KeyNews, keyNewsPerStage)...)
	return dedupe(items)
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

type reportJSON struct {
	Date             string           `json:"date"`
	Sentiment        *Sentiment       `json:"sentiment"`
	Trends           *Trend           `json:"trends"`
	Recommendations  []Recommendation `json:"recommendations"`
	KeyNewsSummaries []string         `json:"key_news_summaries"`
	GeneratedAt      string           `json:"generated_at"`
	AnalysisVersion  string           `json:"analysis_version"`
}

// UnmarshalJSON 通过 NewReport 构造，违反约束的存档无法被静默加载
func (r *Report) UnmarshalJSON(data []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Sentiment == nil {
		return invalid("sentiment", "required")
	}
	if raw.Trends == nil {
		return invalid("trends", "required")
	}

	opts := []ReportOption{
		WithAnalysisVersion(raw.AnalysisVersion),
		WithKeyNewsSummaries(raw.KeyNewsSummaries),
	}
	if raw.GeneratedAt != "" {
		t, err := parseTimestamp(raw.GeneratedAt)
		if err != nil {
			return invalid("generated_at", "%v", err)
		}
		opts = append(opts, WithGeneratedAt(t))
	}

	v, err := NewReport(raw.Date, *raw.Sentiment, *raw.Trends, raw.Recommendations, opts...)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}
