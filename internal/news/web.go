package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

// DatePlaceholder URL 模板中的日期占位符
const DatePlaceholder = "{date}"

// WebReader 抓取网页并提取正文
type WebReader struct {
	urlTemplate string
	client      *http.Client
	minLength   int
}

func NewWebReader(urlTemplate string, timeout time.Duration, minLength int) *WebReader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebReader{
		urlTemplate: urlTemplate,
		client:      &http.Client{Timeout: timeout},
		minLength:   minLength,
	}
}

// URL 替换占位符后的页面地址
func (r *WebReader) URL(date string) string {
	return strings.ReplaceAll(r.urlTemplate, DatePlaceholder, date)
}

func (r *WebReader) ReadNews(ctx context.Context, date string) (string, error) {
	if _, err := model.ParseDate(date); err != nil {
		return "", err
	}

	pageURL, err := url.Parse(r.URL(date))
	if err != nil {
		return "", fmt.Errorf("invalid news source url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrInputNotFound, pageURL)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("fetch %s: status code %d", pageURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", pageURL, err)
	}

	content := strings.TrimSpace(article.TextContent)
	if err := ValidateContent(content, r.minLength); err != nil {
		return "", fmt.Errorf("%s: %w", pageURL, err)
	}

	logger.Component("news").Infof("抓取新闻页面: %s (%d 字)", pageURL, len([]rune(content)))
	return content, nil
}
