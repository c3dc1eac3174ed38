package news

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

// DefaultTavilyEndpoint Tavily 搜索接口地址
const DefaultTavilyEndpoint = "https://api.tavily.com/search"

// TavilyReader 通过 Tavily 新闻搜索拼接当日的新闻文本
type TavilyReader struct {
	apiKey     string
	endpoint   string
	client     *http.Client
	maxResults int
	minLength  int
}

// NewTavilyReader endpoint 为空时使用官方地址
func NewTavilyReader(apiKey, endpoint string, minLength int) *TavilyReader {
	if endpoint == "" {
		endpoint = DefaultTavilyEndpoint
	}
	return &TavilyReader{
		apiKey:     apiKey,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: 30 * time.Second},
		maxResults: 10,
		minLength:  minLength,
	}
}

// tavilyRequest Tavily 搜索请求参数
type tavilyRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth,omitempty"` // basic or advanced
	Topic             string `json:"topic,omitempty"`        // general or news
	MaxResults        int    `json:"max_results,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
	StartDate         string `json:"start_date,omitempty"`
	EndDate           string `json:"end_date,omitempty"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
}

func (r *TavilyReader) ReadNews(ctx context.Context, date string) (string, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return "", err
	}

	resp, err := r.search(ctx, tavilyRequest{
		Query:             "新闻联播 " + day.Format("2006年1月2日"),
		SearchDepth:       "basic",
		Topic:             "news",
		MaxResults:        r.maxResults,
		IncludeRawContent: true,
		StartDate:         day.Format(time.DateOnly),
		EndDate:           day.Format(time.DateOnly),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("%w: no search results for %s", ErrInputNotFound, date)
	}

	var sb strings.Builder
	for _, item := range resp.Results {
		// 优先使用正文，缺失时使用摘要
		content := item.RawContent
		if strings.TrimSpace(content) == "" {
			content = item.Content
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", item.Title, strings.TrimSpace(content))
	}

	text := sb.String()
	if err := ValidateContent(text, r.minLength); err != nil {
		return "", err
	}

	logger.Component("news").Infof("通过搜索获取新闻 %d 条: %s", len(resp.Results), date)
	return text, nil
}

func (r *TavilyReader) search(ctx context.Context, req tavilyRequest) (*tavilyResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}

	var out tavilyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	return &out, nil
}
