package engine

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/news_analysis/internal/model"
)

// Metric 对比维度
type Metric string

const (
	MetricSentiment Metric = "sentiment"
	MetricTrends    Metric = "trends"
	MetricAll       Metric = "all"
)

const compareSummaryLength = 100

// ParseMetric 解析对比维度
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricSentiment, MetricTrends, MetricAll:
		return m, nil
	case "":
		return MetricAll, nil
	}
	return "", fmt.Errorf("unsupported metric: %s", s)
}

// Compare 按日期顺序输出多份报告的情绪与趋势对比
func Compare(reports []*model.Report, metric Metric) string {
	lines := []string{"## 分析结果对比\n"}

	if metric == MetricSentiment || metric == MetricAll {
		lines = append(lines, "### 市场情绪对比\n")
		for _, r := range reports {
			lines = append(lines, fmt.Sprintf("%s: %s (%d/100, %s)",
				r.Date, r.Sentiment.Category, r.Sentiment.Score, r.Sentiment.Intensity))
		}
		lines = append(lines, "")
	}

	if metric == MetricTrends || metric == MetricAll {
		lines = append(lines, "### 经济发展趋势对比\n")
		for _, r := range reports {
			lines = append(lines, fmt.Sprintf("%s: %s...", r.Date, model.TruncateRunes(r.Trends.Summary, compareSummaryLength)))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
