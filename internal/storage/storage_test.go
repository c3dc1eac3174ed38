package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_analysis/internal/model"
)

func newTestReport(t *testing.T, date string) *model.Report {
	t.Helper()
	s, err := model.NewSentiment(66, "积极", "中", []string{"国务院常务会议召开"})
	require.NoError(t, err)
	tr, err := model.NewTrend("经济持续回升向好。", []string{"稳增长"}, []string{"高端制造"}, []string{"PMI 回升"}, []string{"一季度数据发布"})
	require.NoError(t, err)
	rec, err := model.NewRecommendation(model.Recommendation{
		Industry:  "高端制造",
		Reason:    "<政策> & 需求共振",
		Companies: []string{"三一重工(600031)"},
		RiskLevel: model.LevelMedium,
	})
	require.NoError(t, err)

	r, err := model.NewReport(date, *s, *tr, []model.Recommendation{*rec},
		model.WithGeneratedAt(time.Date(2024, 3, 1, 20, 30, 0, 0, time.Local)))
	require.NoError(t, err)
	return r
}

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFileStorage(filepath.Join(dir, "analysis"), filepath.Join(dir, "results"))
	require.NoError(t, err)
	return s
}

func TestFileStorage_SaveLoad(t *testing.T) {
	s := newTestStorage(t)
	report := newTestReport(t, "20240301")

	path, err := s.Save(report)
	require.NoError(t, err)
	assert.Equal(t, s.AnalysisPath("20240301"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "国务院常务会议召开")
	assert.Contains(t, string(raw), "<政策> & 需求共振")
	assert.Contains(t, string(raw), "\n  \"date\": \"20240301\"")

	loaded, err := s.Load("20240301")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, report.Date, loaded.Date)
	assert.Equal(t, report.Sentiment, loaded.Sentiment)
	assert.Equal(t, report.Trends, loaded.Trends)
	assert.Equal(t, report.KeyNewsSummaries, loaded.KeyNewsSummaries)
	assert.True(t, report.GeneratedAt.Equal(loaded.GeneratedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestFileStorage_LoadMissing(t *testing.T) {
	s := newTestStorage(t)
	report, err := s.Load("20240101")
	assert.NoError(t, err)
	assert.Nil(t, report)
}

func TestFileStorage_LoadInvalid(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, os.WriteFile(s.AnalysisPath("20240101"), []byte(`{"date": "20240101"}`), 0o644))

	_, err := s.Load("20240101")
	assert.Error(t, err)
}

func TestFileStorage_SaveOverwrites(t *testing.T) {
	s := newTestStorage(t)
	first := newTestReport(t, "20240301")
	_, err := s.Save(first)
	require.NoError(t, err)

	second := newTestReport(t, "20240301")
	second.Sentiment.Score = 12
	_, err = s.Save(second)
	require.NoError(t, err)

	loaded, err := s.Load("20240301")
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Sentiment.Score)
}

func TestFileStorage_SaveResults(t *testing.T) {
	s := newTestStorage(t)
	report := newTestReport(t, "20240301")

	for format, ext := range map[Format]string{FormatMarkdown: ".md", FormatJSON: ".json", FormatText: ".txt"} {
		path, err := s.SaveResults(report, format)
		require.NoError(t, err)
		assert.Equal(t, "20240301"+ext, filepath.Base(path))
		assert.FileExists(t, path)
	}

	_, err := s.SaveResults(report, FormatCSV)
	assert.Error(t, err)
}

func TestFileStorage_Remove(t *testing.T) {
	s := newTestStorage(t)
	report := newTestReport(t, "20240301")
	_, err := s.Save(report)
	require.NoError(t, err)
	md, err := s.SaveResults(report, FormatMarkdown)
	require.NoError(t, err)
	other, err := s.Save(newTestReport(t, "20240302"))
	require.NoError(t, err)

	require.NoError(t, s.Remove("20240301"))
	assert.NoFileExists(t, s.AnalysisPath("20240301"))
	assert.NoFileExists(t, md)
	assert.FileExists(t, other)

	loaded, err := s.Load("20240301")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// 再次删除不存在的文件不报错
	assert.NoError(t, s.Remove("20240301"))
}

func TestFileStorage_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(filepath.Join(dir, "analysis"), filepath.Join(dir, "results"))
	require.NoError(t, err)

	// 用同名文件占住目录位置
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "analysis")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis"), []byte("x"), 0o644))

	_, err = s.Save(newTestReport(t, "20240301"))
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestRender(t *testing.T) {
	report := newTestReport(t, "20240301")

	md, err := Render(report, FormatMarkdown)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# 《新闻联播》分析报告 - 20240301\n"))
	assert.Contains(t, md, "**生成时间**: 2024-03-01 20:30:00")
	assert.Contains(t, md, "**评分**: 66/100")
	assert.Contains(t, md, "### 政策方向\n\n- 稳增长\n")
	assert.Contains(t, md, "### 经济指标\n\n- PMI 回升\n")
	assert.Contains(t, md, "### 1. 高端制造")
	assert.Contains(t, md, "**相关A股头部公司**:\n- 三一重工(600031)\n")
	assert.Contains(t, md, "**免责声明**: 投资有风险，仅供参考")

	text, err := Render(report, FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, "  分类: 积极")
	assert.Contains(t, text, "  高端制造: <政策> & 需求共振")
	assert.NotContains(t, text, "经济指标")

	js, err := Render(report, FormatJSON)
	require.NoError(t, err)
	var decoded model.Report
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))

	csvOut, err := Render(report, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "日期,情绪评分,情绪分类,趋势总结\n20240301,66,积极,经济持续回升向好。\n", csvOut)

	_, err = Render(report, Format("pdf"))
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
