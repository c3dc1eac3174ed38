package server

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_analysis/internal/config"
	"github.com/iWorld-y/news_analysis/internal/model"
)

type mockReports struct {
	reports map[string]*model.Report
	err     error
}

func (m *mockReports) Load(date string) (*model.Report, error) {
	return m.reports[date], m.err
}

type mockIndex struct {
	dates []string
}

func (m *mockIndex) GetDates(limit int) []string {
	if limit > 0 && len(m.dates) > limit {
		return m.dates[:limit]
	}
	return m.dates
}

func (m *mockIndex) GetLatest() string {
	if len(m.dates) == 0 {
		return ""
	}
	return m.dates[0]
}

func newTestServer(t *testing.T, reports *mockReports, index *mockIndex) *httptest.Server {
	t.Helper()
	svc := NewReportService(reports, index, log.DefaultLogger)
	srv := NewHTTPServer(config.ServerConfig{}, svc, log.DefaultLogger)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func sampleReport(t *testing.T) *model.Report {
	t.Helper()
	s, err := model.NewSentiment(40, "消极", "高", []string{"外部环境复杂"})
	require.NoError(t, err)
	tr, err := model.NewTrend("压力加大。", nil, nil, []string{"CPI 下行"}, []string{"外部环境复杂"})
	require.NoError(t, err)
	r, err := model.NewReport("20240301", *s, *tr, nil)
	require.NoError(t, err)
	return r
}

func get(t *testing.T, url string) (int, string, nethttp.Header) {
	t.Helper()
	resp, err := nethttp.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header
}

func TestListReports(t *testing.T) {
	ts := newTestServer(t, &mockReports{}, &mockIndex{dates: []string{"20240303", "20240302", "20240301"}})

	code, body, _ := get(t, ts.URL+"/api/reports?limit=2")
	require.Equal(t, 200, code)
	var list DateList
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Equal(t, []string{"20240303", "20240302"}, list.Dates)
	assert.Equal(t, "20240303", list.Latest)

	code, _, _ = get(t, ts.URL+"/api/reports?limit=abc")
	assert.Equal(t, 400, code)
}

func TestGetReport(t *testing.T) {
	report := sampleReport(t)
	ts := newTestServer(t, &mockReports{reports: map[string]*model.Report{"20240301": report}}, &mockIndex{})

	code, body, _ := get(t, ts.URL+"/api/reports/20240301")
	require.Equal(t, 200, code)
	var decoded model.Report
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, report.Sentiment, decoded.Sentiment)

	code, body, _ = get(t, ts.URL+"/api/reports/20240302")
	assert.Equal(t, 404, code)
	assert.Contains(t, body, "REPORT_NOT_FOUND")

	code, _, _ = get(t, ts.URL+"/api/reports/20240230")
	assert.Equal(t, 400, code)
}

func TestGetReportMarkdown(t *testing.T) {
	ts := newTestServer(t, &mockReports{reports: map[string]*model.Report{"20240301": sampleReport(t)}}, &mockIndex{})

	code, body, header := get(t, ts.URL+"/api/reports/20240301/markdown")
	require.Equal(t, 200, code)
	assert.True(t, strings.HasPrefix(header.Get("Content-Type"), "text/markdown"))
	assert.True(t, strings.HasPrefix(body, "# 《新闻联播》分析报告 - 20240301"))
}

func TestGetReport_LoadError(t *testing.T) {
	ts := newTestServer(t, &mockReports{err: errors.New("disk error")}, &mockIndex{})

	code, _, _ := get(t, ts.URL+"/api/reports/20240301")
	assert.Equal(t, 500, code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &mockReports{}, &mockIndex{})
	code, body, _ := get(t, ts.URL+"/healthz")
	assert.Equal(t, 200, code)
	assert.Equal(t, "ok", body)
}
