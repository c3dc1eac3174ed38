package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

// ErrPersistence 写入分析结果或索引失败
var ErrPersistence = errors.New("persistence error")

// FileStorage 按日期保存分析报告与格式化结果
type FileStorage struct {
	analysisDir string
	resultsDir  string
}

// NewFileStorage 创建文件存储并确保目录存在
func NewFileStorage(analysisDir, resultsDir string) (*FileStorage, error) {
	for _, dir := range []string{analysisDir, resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory %s: %v", ErrPersistence, dir, err)
		}
	}
	return &FileStorage{analysisDir: analysisDir, resultsDir: resultsDir}, nil
}

// AnalysisPath 报告 JSON 的存储路径
func (s *FileStorage) AnalysisPath(date string) string {
	return filepath.Join(s.analysisDir, date+".json")
}

// Save 将报告写入 <analysis_dir>/<date>.json，已存在时覆盖
func (s *FileStorage) Save(report *model.Report) (string, error) {
	data, err := MarshalReport(report)
	if err != nil {
		return "", fmt.Errorf("%w: encode report %s: %v", ErrPersistence, report.Date, err)
	}

	path := s.AnalysisPath(report.Date)
	if err := atomicWrite(path, data); err != nil {
		logger.Component("storage").Errorf("保存分析报告失败: %v", err)
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logger.Component("storage").Infof("分析报告已保存: %s", path)
	return path, nil
}

// Load 读取指定日期的报告，不存在时返回 (nil, nil)
func (s *FileStorage) Load(date string) (*model.Report, error) {
	path := s.AnalysisPath(date)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Component("storage").Debugf("分析报告不存在: %s", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		logger.Component("storage").Errorf("加载分析报告失败: %v", err)
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &report, nil
}

// SaveResults 按格式渲染报告并写入结果目录，返回文件路径
func (s *FileStorage) SaveResults(report *model.Report, format Format) (string, error) {
	ext, ok := resultExtensions[format]
	if !ok {
		return "", fmt.Errorf("unsupported results format: %s", format)
	}

	content, err := Render(report, format)
	if err != nil {
		return "", fmt.Errorf("%w: render %s: %v", ErrPersistence, format, err)
	}

	path := filepath.Join(s.resultsDir, report.Date+ext)
	if err := atomicWrite(path, []byte(content)); err != nil {
		logger.Component("storage").Errorf("保存结果失败: %v", err)
		return "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	logger.Component("storage").Infof("结果已保存: %s", path)
	return path, nil
}

// Remove 删除指定日期的报告与全部结果文件，文件不存在时忽略
func (s *FileStorage) Remove(date string) error {
	paths := []string{s.AnalysisPath(date)}
	for _, ext := range resultExtensions {
		paths = append(paths, filepath.Join(s.resultsDir, date+ext))
	}

	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrPersistence, errors.Join(errs...))
	}

	logger.Component("storage").Infof("已删除分析结果: %s", date)
	return nil
}

var resultExtensions = map[Format]string{
	FormatMarkdown: ".md",
	FormatJSON:     ".json",
	FormatText:     ".txt",
}

// MarshalReport 以两空格缩进输出 JSON，非 ASCII 字符保持原样
func MarshalReport(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// atomicWrite 先写同目录临时文件再重命名，避免读到半截内容
func atomicWrite(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
