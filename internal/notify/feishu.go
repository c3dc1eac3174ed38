package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

const cardDisclaimer = "⚠️ 免责声明: 投资有风险，建议仅供参考，不构成投资建议"

// Notifier 报告分发，失败只记录日志并返回 false
type Notifier interface {
	Notify(ctx context.Context, report *model.Report) bool
}

// FeishuNotifier 飞书机器人 webhook 通知
type FeishuNotifier struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

func NewFeishuNotifier(webhookURL string, enabled bool, timeout time.Duration) *FeishuNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FeishuNotifier{
		webhookURL: webhookURL,
		enabled:    enabled,
		client:     &http.Client{Timeout: timeout},
	}
}

// Enabled 已启用且配置了 webhook
func (n *FeishuNotifier) Enabled() bool {
	return n.enabled && n.webhookURL != ""
}

// Notify 发送卡片消息，未启用时不发起请求直接返回 false
func (n *FeishuNotifier) Notify(ctx context.Context, report *model.Report) bool {
	log := logger.Component("feishu").WithField("date", report.Date)
	if !n.Enabled() {
		log.Info("飞书通知未启用或未配置 webhook")
		return false
	}

	if err := n.send(ctx, BuildCard(report)); err != nil {
		log.Errorf("飞书通知发送失败: %v", err)
		return false
	}

	log.Info("飞书通知发送成功")
	return true
}

type feishuResponse struct {
	Code *int   `json:"code"`
	Msg  string `json:"msg"`
}

func (n *FeishuNotifier) send(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status code %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// 飞书在 HTTP 200 时通过 code 字段返回业务错误
	var fr feishuResponse
	if json.Unmarshal(respBody, &fr) == nil && fr.Code != nil && *fr.Code != 0 {
		return fmt.Errorf("feishu error %d: %s", *fr.Code, fr.Msg)
	}
	return nil
}

// Message 飞书交互式卡片消息
type Message struct {
	MsgType string `json:"msg_type"`
	Card    Card   `json:"card"`
}

type Card struct {
	Config   CardConfig    `json:"config"`
	Header   CardHeader    `json:"header"`
	Elements []CardElement `json:"elements"`
}

type CardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

type CardHeader struct {
	Title    CardText `json:"title"`
	Template string   `json:"template"`
}

type CardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type CardElement struct {
	Tag      string     `json:"tag"`
	Content  string     `json:"content,omitempty"`
	Elements []CardText `json:"elements,omitempty"`
	Text     *CardText  `json:"text,omitempty"`
}

// BuildCard 将报告组装为卡片：情绪、趋势、建议、免责声明与 @所有人
func BuildCard(r *model.Report) *Message {
	hr := CardElement{Tag: "hr"}
	elements := []CardElement{
		{Tag: "markdown", Content: "**生成时间**: " + r.GeneratedAt.Format("2006-01-02 15:04:05")},
		hr,
		{Tag: "markdown", Content: "**一、市场情绪**\n\n" + sentimentSection(r.Sentiment)},
		hr,
		{Tag: "markdown", Content: "**二、经济发展趋势**\n\n" + trendSection(r.Trends)},
		hr,
	}

	if len(r.Recommendations) > 0 {
		elements = append(elements,
			CardElement{Tag: "markdown", Content: "**三、推荐建议**\n\n" + recommendationSection(r.Recommendations)},
			hr,
		)
	}

	elements = append(elements,
		CardElement{Tag: "note", Elements: []CardText{{Tag: "plain_text", Content: cardDisclaimer}}},
		CardElement{Tag: "div", Text: &CardText{Tag: "lark_md", Content: "<at id=all></at>"}},
	)

	return &Message{
		MsgType: "interactive",
		Card: Card{
			Config: CardConfig{WideScreenMode: true},
			Header: CardHeader{
				Title:    CardText{Tag: "plain_text", Content: fmt.Sprintf("《新闻联播》分析报告 - %s", r.Date)},
				Template: "blue",
			},
			Elements: elements,
		},
	}
}

func sentimentSection(s model.Sentiment) string {
	lines := []string{
		fmt.Sprintf("**评分**: %d/100", s.Score),
		fmt.Sprintf("**分类**: %s", s.Category),
		fmt.Sprintf("**强度**: %s", s.Intensity),
		"",
		"**关键新闻**:",
	}
	for _, news := range s.KeyNews {
		lines = append(lines, "- "+news)
	}
	return strings.Join(lines, "\n")
}

func trendSection(t model.Trend) string {
	lines := []string{t.Summary, ""}
	for _, section := range []struct {
		title string
		items []string
	}{
		{"政策方向", t.Policies},
		{"热点行业", t.Industries},
		{"经济指标", t.Indicators},
	} {
		if len(section.items) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("**%s**:", section.title))
		for _, item := range section.items {
			lines = append(lines, "- "+item)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func recommendationSection(recs []model.Recommendation) string {
	var lines []string
	for i, rec := range recs {
		lines = append(lines,
			fmt.Sprintf("**%d. %s**", i+1, rec.Industry),
			"",
			fmt.Sprintf("**推荐理由**: %s", rec.Reason),
			"",
		)
		if len(rec.Companies) > 0 {
			lines = append(lines, "**相关A股头部公司**:")
			for _, c := range rec.Companies {
				lines = append(lines, "- "+c)
			}
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("**风险等级**: %s", rec.RiskLevel), "")
	}
	return strings.Join(lines, "\n")
}
