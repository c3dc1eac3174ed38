package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_API_BASE_URL", "OPENAI_MODEL", "OPENAI_TIMEOUT",
		"ANALYSIS_DIR", "NEWS_DIR", "RESULTS_DIR", "NEWS_SOURCE_URL", "TAVILY_API_KEY",
		"FEISHU_WEBHOOK_URL", "FEISHU_ENABLED", "DATABASE_DSN",
		"LOG_LEVEL", "LOG_FILE", "SCHEDULE_CRON", "HTTP_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 300*time.Second, cfg.LLM.RequestTimeout())
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.True(t, filepath.IsAbs(cfg.Storage.AnalysisDir))
	assert.Equal(t, "analysis", filepath.Base(cfg.Storage.AnalysisDir))
	assert.Equal(t, 8000, cfg.News.MaxInput)
	assert.Equal(t, "0 30 20 * * *", cfg.Schedule.Cron)

	assert.Error(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  api_key: "yaml-key"
  model: "qwen-plus"
  timeout: 60
storage:
  root: "`+dir+`"
  analysis_dir: "out/analysis"
feishu:
  enabled: true
  webhook_url: "https://example.invalid/hook"
`), 0o644))

	t.Setenv("OPENAI_MODEL", "deepseek-chat")
	t.Setenv("FEISHU_ENABLED", "false")
	t.Setenv("RESULTS_DIR", "/tmp/results")
	t.Setenv("TAVILY_API_KEY", "tvly-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-key", cfg.LLM.APIKey)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 60, cfg.LLM.Timeout)
	assert.Equal(t, filepath.Join(dir, "out", "analysis"), cfg.Storage.AnalysisDir)
	assert.Equal(t, filepath.Join(dir, "news"), cfg.Storage.NewsDir)
	assert.Equal(t, "/tmp/results", cfg.Storage.ResultsDir)
	assert.False(t, cfg.Feishu.Enabled)
	assert.Equal(t, "tvly-test", cfg.News.SearchAPIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestScheduleLocation(t *testing.T) {
	assert.Equal(t, time.Local, ScheduleConfig{}.Location())
	assert.Equal(t, time.Local, ScheduleConfig{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, "UTC", ScheduleConfig{Timezone: "UTC"}.Location().String())
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Storage.AnalysisDir = filepath.Join(dir, "a", "b")
	cfg.Storage.ResultsDir = filepath.Join(dir, "r")

	require.NoError(t, cfg.EnsureDirs())
	assert.DirExists(t, cfg.Storage.AnalysisDir)
	assert.DirExists(t, cfg.Storage.ResultsDir)
}
