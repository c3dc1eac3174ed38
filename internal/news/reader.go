package news

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

// DefaultMinLength 有效新闻文本的最少字符数
const DefaultMinLength = 10

var (
	ErrInputNotFound  = errors.New("news input not found")
	ErrInvalidContent = errors.New("invalid news content")
)

// Reader 读取指定日期的新闻文本
type Reader interface {
	ReadNews(ctx context.Context, date string) (string, error)
}

// ValidateContent 去除首尾空白后非空且不少于 minLength 个字符
func ValidateContent(content string, minLength int) error {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidContent)
	}
	if n := len([]rune(trimmed)); n < minLength {
		return fmt.Errorf("%w: %d characters, need at least %d", ErrInvalidContent, n, minLength)
	}
	return nil
}

// FallbackReader 依次尝试多个来源，仅在未找到时切换到下一个
type FallbackReader struct {
	readers []Reader
}

func NewFallbackReader(readers ...Reader) *FallbackReader {
	return &FallbackReader{readers: readers}
}

func (f *FallbackReader) ReadNews(ctx context.Context, date string) (string, error) {
	if _, err := model.ParseDate(date); err != nil {
		return "", err
	}

	lastErr := fmt.Errorf("%w: no reader configured for %s", ErrInputNotFound, date)
	for i, r := range f.readers {
		content, err := r.ReadNews(ctx, date)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, ErrInputNotFound) {
			return "", err
		}
		logger.Component("news").WithField("date", date).Debugf("新闻来源 %d 未找到内容: %v", i, err)
		lastErr = err
	}
	return "", lastErr
}
