package news

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

// FileReader 从 <news_dir>/<date>.md 读取新闻
type FileReader struct {
	dir       string
	minLength int
}

func NewFileReader(dir string, minLength int) *FileReader {
	return &FileReader{dir: dir, minLength: minLength}
}

// Path 指定日期的新闻文件路径
func (r *FileReader) Path(date string) string {
	return filepath.Join(r.dir, date+".md")
}

func (r *FileReader) ReadNews(ctx context.Context, date string) (string, error) {
	if _, err := model.ParseDate(date); err != nil {
		return "", err
	}

	path := r.Path(date)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("read news file %s: %w", path, err)
	}

	content := string(data)
	if err := ValidateContent(content, r.minLength); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	logger.Component("news").Infof("读取新闻文件: %s", path)
	return content, nil
}
