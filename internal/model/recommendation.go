package model

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// ReasonMaxLength 推荐理由的字符上限
	ReasonMaxLength = 200
	// MaxCompanies 单条推荐最多包含的公司数
	MaxCompanies = 3

	DefaultDisclaimer = "投资有风险，仅供参考"

	fallbackIndustry   = "通用"
	fallbackReason     = "市场分析仅供参考"
	fallbackDisclaimer = "投资有风险，建议仅供参考，不构成投资建议"
)

// Recommendation 单条投资建议
type Recommendation struct {
	Industry      string    `json:"industry"`
	Reason        string    `json:"reason"`
	Companies     []string  `json:"companies"`
	RelatedNews   []string  `json:"related_news"`
	RiskLevel     Level     `json:"risk_level"`
	Disclaimer    string    `json:"disclaimer"`
	RecommendedAt time.Time `json:"recommended_at"`
}

// NewRecommendation 补齐默认值后校验草稿，返回新的推荐记录
func NewRecommendation(draft Recommendation) (*Recommendation, error) {
	r := draft

	r.Industry = strings.TrimSpace(r.Industry)
	if runeLen(r.Reason) > ReasonMaxLength {
		return nil, invalid("recommendation.reason", "must be at most %d characters, got %d", ReasonMaxLength, runeLen(r.Reason))
	}
	r.Reason = strings.TrimSpace(r.Reason)

	if len(r.Companies) > MaxCompanies {
		return nil, invalid("recommendation.companies", "at most %d companies, got %d", MaxCompanies, len(r.Companies))
	}
	r.Companies = cleanList(r.Companies)
	r.RelatedNews = cleanList(r.RelatedNews)

	if l, ok := ParseLevel(string(r.RiskLevel)); ok {
		r.RiskLevel = l
	}

	if strings.TrimSpace(r.Disclaimer) == "" {
		r.Disclaimer = DefaultDisclaimer
	}
	if r.RecommendedAt.IsZero() {
		r.RecommendedAt = time.Now()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate 检查推荐记录的全部约束
func (r Recommendation) Validate() error {
	if strings.TrimSpace(r.Industry) == "" {
		return invalid("recommendation.industry", "required")
	}
	if runeLen(r.Reason) > ReasonMaxLength {
		return invalid("recommendation.reason", "must be at most %d characters, got %d", ReasonMaxLength, runeLen(r.Reason))
	}
	if len(r.Companies) > MaxCompanies {
		return invalid("recommendation.companies", "at most %d companies, got %d", MaxCompanies, len(r.Companies))
	}
	for _, c := range r.Companies {
		if strings.TrimSpace(c) == "" || c != strings.TrimSpace(c) {
			return invalid("recommendation.companies", "items must be trimmed and non-empty")
		}
	}
	if !validLevel(r.RiskLevel) {
		return invalid("recommendation.risk_level", "must be one of 低/中/高, got %q", r.RiskLevel)
	}
	return nil
}

// DefaultRecommendation 分析失败时使用的仅含免责声明的推荐
func DefaultRecommendation() Recommendation {
	return Recommendation{
		Industry:      fallbackIndustry,
		Reason:        fallbackReason,
		Companies:     []string{},
		RelatedNews:   []string{},
		RiskLevel:     LevelMedium,
		Disclaimer:    fallbackDisclaimer,
		RecommendedAt: time.Now(),
	}
}

// IsDefault 判断是否为兜底推荐
func (r Recommendation) IsDefault() bool {
	return r.Industry == fallbackIndustry && r.Reason == fallbackReason && len(r.Companies) == 0
}

type recommendationJSON struct {
	Industry      *string  `json:"industry"`
	Reason        *string  `json:"reason"`
	Companies     []string `json:"companies"`
	RelatedNews   []string `json:"related_news"`
	RiskLevel     *string  `json:"risk_level"`
	Disclaimer    string   `json:"disclaimer"`
	RecommendedAt string   `json:"recommended_at"`
}

// UnmarshalJSON 通过 NewRecommendation 构造
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var raw recommendationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Industry == nil {
		return invalid("recommendation.industry", "required")
	}
	if raw.Reason == nil {
		return invalid("recommendation.reason", "required")
	}
	if raw.RiskLevel == nil {
		return invalid("recommendation.risk_level", "required")
	}

	draft := Recommendation{
		Industry:    *raw.Industry,
		Reason:      *raw.Reason,
		Companies:   raw.Companies,
		RelatedNews: raw.RelatedNews,
		RiskLevel:   Level(*raw.RiskLevel),
		Disclaimer:  raw.Disclaimer,
	}
	if raw.RecommendedAt != "" {
		t, err := parseTimestamp(raw.RecommendedAt)
		if err != nil {
			return invalid("recommendation.recommended_at", "%v", err)
		}
		draft.RecommendedAt = t
	}

	v, err := NewRecommendation(draft)
	if err != nil {
		return err
	}
	*r = *v
	return nil
}

// ParseRecommendation 从 JSON 文本构造推荐记录
func ParseRecommendation(data []byte) (*Recommendation, error) {
	var r Recommendation
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
