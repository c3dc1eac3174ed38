package model

import (
	"encoding/json"
	"strings"
)

const (
	// SummaryMaxLength 趋势总结的字符上限
	SummaryMaxLength = 500
	// Ellipsis 截断后追加的省略标记
	Ellipsis = "..."
)

// 截断时可作为断句点的标点
var sentenceBreaks = map[rune]bool{'。': true, '！': true, '？': true, '，': true}

// Trend 经济发展趋势分析结果
type Trend struct {
	Summary    string   `json:"summary"`
	Policies   []string `json:"policies"`
	Industries []string `json:"industries"`
	Indicators []string `json:"indicators"`
	KeyNews    []string `json:"key_news"`
}

// NewTrend 截断总结后校验并构造趋势记录
func NewTrend(summary string, policies, industries, indicators, keyNews []string) (*Trend, error) {
	t := &Trend{
		Summary:    TruncateSummary(summary),
		Policies:   cleanList(policies),
		Industries: cleanList(industries),
		Indicators: cleanList(indicators),
		KeyNews:    cleanList(keyNews),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// TruncateSummary 超过上限时优先在窗口最后 20% 内的断句点截断，否则硬截断，并追加省略号
func TruncateSummary(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= SummaryMaxLength {
		return s
	}

	window := runes[:SummaryMaxLength]
	cut := -1
	for i := len(window) - 1; i >= 0; i-- {
		if sentenceBreaks[window[i]] {
			cut = i
			break
		}
	}

	if cut > SummaryMaxLength*4/5 {
		return string(window[:cut+1]) + Ellipsis
	}
	return string(window) + Ellipsis
}

// Validate 检查趋势记录的全部约束
func (t Trend) Validate() error {
	if runeLen(t.Summary) > SummaryMaxLength+runeLen(Ellipsis) {
		return invalid("trends.summary", "must be at most %d characters", SummaryMaxLength)
	}
	if len(t.Policies) == 0 && len(t.Industries) == 0 && len(t.Indicators) == 0 {
		return invalid("trends", "at least one of policies, industries, or indicators must be non-empty")
	}
	if len(t.KeyNews) == 0 {
		return invalid("trends.key_news", "must contain at least one item")
	}
	for _, item := range t.KeyNews {
		if strings.TrimSpace(item) == "" || item != strings.TrimSpace(item) {
			return invalid("trends.key_news", "items must be trimmed and non-empty")
		}
	}
	return nil
}

type trendJSON struct {
	Summary    *string  `json:"summary"`
	Policies   []string `json:"policies"`
	Industries []string `json:"industries"`
	Indicators []string `json:"indicators"`
	KeyNews    []string `json:"key_news"`
}

// UnmarshalJSON 通过 NewTrend 构造，超长总结在此处截断
func (t *Trend) UnmarshalJSON(data []byte) error {
	var raw trendJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Summary == nil {
		return invalid("trends.summary", "required")
	}
	if raw.KeyNews == nil {
		return invalid("trends.key_news", "required")
	}

	v, err := NewTrend(*raw.Summary, raw.Policies, raw.Industries, raw.Indicators, raw.KeyNews)
	if err != nil {
		return err
	}
	*t = *v
	return nil
}

// ParseTrend 从模型返回的 JSON 文本构造趋势记录
func ParseTrend(data []byte) (*Trend, error) {
	var t Trend
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
