package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_analysis/internal/model"
)

func TestIndexManager_AddAndQuery(t *testing.T) {
	m, err := NewIndexManager(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, m.GetDates(0))
	assert.Equal(t, "", m.GetLatest())

	for _, d := range []string{"20240103", "20240101", "20240102", "20240101"} {
		require.NoError(t, m.AddDate(d))
	}

	idx := m.Load()
	assert.Equal(t, []string{"20240101", "20240102", "20240103"}, idx.Dates)
	assert.Equal(t, "20240101", idx.Latest)
	assert.Equal(t, []string{"20240103", "20240102", "20240101"}, m.GetDates(0))
	assert.Equal(t, []string{"20240103", "20240102"}, m.GetDates(2))
	assert.Equal(t, "20240101", m.GetLatest())
}

func TestIndexManager_InvalidDate(t *testing.T) {
	m, err := NewIndexManager(t.TempDir())
	require.NoError(t, err)

	err = m.AddDate("2024-01-01")
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, m.GetDates(0))
}

func TestIndexManager_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	m, err := NewIndexManager(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFile), []byte("{not json"), 0o644))
	assert.Empty(t, m.Load().Dates)

	// latest 不在 dates 中同样视为损坏
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFile), []byte(`{"dates": ["20240101"], "latest": "20240105"}`), 0o644))
	assert.Empty(t, m.Load().Dates)

	require.NoError(t, m.AddDate("20240110"))
	assert.Equal(t, []string{"20240110"}, m.GetDates(0))
}

// 两个管理器交错读-改-写时，先写入的日期会丢失
func TestIndexManager_InterleavedWritesLoseUpdate(t *testing.T) {
	dir := t.TempDir()
	first, err := NewIndexManager(dir)
	require.NoError(t, err)
	second, err := NewIndexManager(dir)
	require.NoError(t, err)

	idxA := first.Load()
	idxB := second.Load()

	require.NoError(t, idxA.Add("20240101", time.Now()))
	require.NoError(t, first.Save(idxA))

	require.NoError(t, idxB.Add("20240102", time.Now()))
	require.NoError(t, second.Save(idxB))

	assert.Equal(t, []string{"20240102"}, first.GetDates(0))
}
