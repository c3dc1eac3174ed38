package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_analysis/internal/model"
)

func compareReport(t *testing.T, date string, score int, summary string) *model.Report {
	t.Helper()
	s, err := model.NewSentiment(score, "中性", "低", []string{"a"})
	require.NoError(t, err)
	tr, err := model.NewTrend(summary, []string{"p"}, nil, nil, []string{"a"})
	require.NoError(t, err)
	r, err := model.NewReport(date, *s, *tr, nil)
	require.NoError(t, err)
	return r
}

func TestCompare(t *testing.T) {
	reports := []*model.Report{
		compareReport(t, "20240301", 50, "短总结"),
		compareReport(t, "20240302", 60, strings.Repeat("长", 150)),
	}

	out := Compare(reports, MetricAll)
	assert.True(t, strings.HasPrefix(out, "## 分析结果对比\n"))
	assert.Contains(t, out, "### 市场情绪对比\n\n20240301: 中性 (50/100, 低)\n20240302: 中性 (60/100, 低)")
	assert.Contains(t, out, "20240301: 短总结...")
	assert.Contains(t, out, "20240302: "+strings.Repeat("长", 100)+"...")

	assert.NotContains(t, Compare(reports, MetricSentiment), "经济发展趋势对比")
	assert.NotContains(t, Compare(reports, MetricTrends), "市场情绪对比")
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricAll, m)

	m, err = ParseMetric("Trends")
	require.NoError(t, err)
	assert.Equal(t, MetricTrends, m)

	_, err = ParseMetric("volume")
	assert.Error(t, err)
}
