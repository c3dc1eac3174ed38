package model

import (
	"encoding/json"
	"strings"
)

// Category 市场情绪分类
type Category string

const (
	SentimentPositive Category = "积极"
	SentimentNeutral  Category = "中性"
	SentimentNegative Category = "消极"
)

// Level 强度/风险等级
type Level string

const (
	LevelLow    Level = "低"
	LevelMedium Level = "中"
	LevelHigh   Level = "高"
)

var categoryAliases = map[string]Category{
	"积极": SentimentPositive, "positive": SentimentPositive,
	"中性": SentimentNeutral, "neutral": SentimentNeutral,
	"消极": SentimentNegative, "negative": SentimentNegative,
}

var levelAliases = map[string]Level{
	"低": LevelLow, "low": LevelLow,
	"中": LevelMedium, "medium": LevelMedium,
	"高": LevelHigh, "high": LevelHigh,
}

// ParseCategory 解析情绪分类，接受中文标签与英文别名
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// ParseLevel 解析等级，接受中文标签与英文别名
func ParseLevel(s string) (Level, bool) {
	l, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// Sentiment 市场情绪分析结果
type Sentiment struct {
	Score     int      `json:"score"`
	Category  Category `json:"category"`
	Intensity Level    `json:"intensity"`
	KeyNews   []string `json:"key_news"`
}

// NewSentiment 校验并构造情绪记录
func NewSentiment(score int, category, intensity string, keyNews []string) (*Sentiment, error) {
	c, ok := ParseCategory(category)
	if !ok {
		c = Category(category)
	}
	l, ok := ParseLevel(intensity)
	if !ok {
		l = Level(intensity)
	}

	s := &Sentiment{
		Score:     score,
		Category:  c,
		Intensity: l,
		KeyNews:   cleanList(keyNews),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate 检查情绪记录的全部约束
func (s Sentiment) Validate() error {
	if s.Score < 0 || s.Score > 100 {
		return invalid("sentiment.score", "must be within [0,100], got %d", s.Score)
	}
	if !validCategory(s.Category) {
		return invalid("sentiment.category", "must be one of 积极/中性/消极, got %q", s.Category)
	}
	if !validLevel(s.Intensity) {
		return invalid("sentiment.intensity", "must be one of 低/中/高, got %q", s.Intensity)
	}
	if len(s.KeyNews) == 0 {
		return invalid("sentiment.key_news", "must contain at least one item")
	}
	for _, item := range s.KeyNews {
		if strings.TrimSpace(item) == "" || item != strings.TrimSpace(item) {
			return invalid("sentiment.key_news", "items must be trimmed and non-empty")
		}
	}
	return nil
}

func validCategory(c Category) bool {
	return c == SentimentPositive || c == SentimentNeutral || c == SentimentNegative
}

func validLevel(l Level) bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

type sentimentJSON struct {
	Score     json.RawMessage `json:"score"`
	Category  *string         `json:"category"`
	Intensity *string         `json:"intensity"`
	KeyNews   []string        `json:"key_news"`
}

// UnmarshalJSON 通过 NewSentiment 构造，保证解码结果满足约束
func (s *Sentiment) UnmarshalJSON(data []byte) error {
	var raw sentimentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Score) == 0 || string(raw.Score) == "null" {
		return invalid("sentiment.score", "required")
	}
	score, err := parseInt(raw.Score)
	if err != nil {
		return invalid("sentiment.score", "%v", err)
	}
	if raw.Category == nil {
		return invalid("sentiment.category", "required")
	}
	if raw.Intensity == nil {
		return invalid("sentiment.intensity", "required")
	}
	if raw.KeyNews == nil {
		return invalid("sentiment.key_news", "required")
	}

	v, err := NewSentiment(score, *raw.Category, *raw.Intensity, raw.KeyNews)
	if err != nil {
		return err
	}
	*s = *v
	return nil
}

// ParseSentiment 从模型返回的 JSON 文本构造情绪记录
func ParseSentiment(data []byte) (*Sentiment, error) {
	var s Sentiment
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
