package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

const indexFile = "index.json"

// IndexManager 维护 <analysis_dir>/index.json
//
// 读-改-写之间没有加锁，多个进程同时追加不同日期时后写者覆盖先写者。
type IndexManager struct {
	path string
	now  func() time.Time
}

// NewIndexManager 创建索引管理器并确保目录存在
func NewIndexManager(analysisDir string) (*IndexManager, error) {
	if err := os.MkdirAll(analysisDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory %s: %v", ErrPersistence, analysisDir, err)
	}
	return &IndexManager{path: filepath.Join(analysisDir, indexFile), now: time.Now}, nil
}

// Load 读取索引，文件不存在或损坏时返回空索引
func (m *IndexManager) Load() *model.Index {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Component("index").Debug("索引文件不存在，使用空索引")
		return model.EmptyIndex()
	}
	if err != nil {
		logger.Component("index").Errorf("读取索引失败: %v", err)
		return model.EmptyIndex()
	}

	var idx model.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		logger.Component("index").Errorf("索引文件损坏，使用空索引: %v", err)
		return model.EmptyIndex()
	}
	return &idx
}

// Save 整体写入索引
func (m *IndexManager) Save(idx *model.Index) error {
	data, err := MarshalReport(idx)
	if err != nil {
		return fmt.Errorf("%w: encode index: %v", ErrPersistence, err)
	}
	if err := atomicWrite(m.path, data); err != nil {
		logger.Component("index").Errorf("保存索引失败: %v", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	logger.Component("index").Debugf("索引已保存: %s", m.path)
	return nil
}

// AddDate 加入日期并将其设为 latest
func (m *IndexManager) AddDate(date string) error {
	if !model.ValidateDate(date) {
		return &model.ValidationError{Field: "date", Rule: fmt.Sprintf("invalid date format: %q", date)}
	}

	idx := m.Load()
	if err := idx.Add(date, m.now()); err != nil {
		return err
	}
	return m.Save(idx)
}

// GetDates 按日期倒序返回，limit <= 0 表示全部
func (m *IndexManager) GetDates(limit int) []string {
	return m.Load().Descending(limit)
}

// GetLatest 返回最近一次分析的日期，没有时返回空串
func (m *IndexManager) GetLatest() string {
	return m.Load().Latest
}
