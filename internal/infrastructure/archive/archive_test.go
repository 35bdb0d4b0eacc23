package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahan-scraper/internal/infrastructure/logger"
)

func TestInject(t *testing.T) {
	root := t.TempDir()
	drop := filepath.Join(t.TempDir(), "downloads")

	old := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	for _, rel := range []string{
		"archive_2024/E2W_CG/cg_RAIPUR_2024_E2W.xlsx",
		"archive_2024/L3G/Delhi_DL4_2024_L3G.XLS",
		"archive_2024/readme.txt",
	} {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
		require.NoError(t, os.Chtimes(p, old, old))
	}

	a := New(root, logger.NewNop())
	n, err := a.Inject(context.Background(), "2024", drop)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	copied := filepath.Join(drop, "cg_RAIPUR_2024_E2W.xlsx")
	data, err := os.ReadFile(copied)
	require.NoError(t, err)
	assert.Equal(t, "archive_2024/E2W_CG/cg_RAIPUR_2024_E2W.xlsx", string(data))

	info, err := os.Stat(copied)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old))

	assert.FileExists(t, filepath.Join(drop, "Delhi_DL4_2024_L3G.XLS"))
	assert.NoFileExists(t, filepath.Join(drop, "readme.txt"))
}

func TestInject_MissingArchive(t *testing.T) {
	_, err := New(t.TempDir(), logger.NewNop()).Inject(context.Background(), "2023", t.TempDir())
	assert.ErrorIs(t, err, ErrArchiveMissing)
}

func TestInject_EmptyArchive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "archive_2024"), 0o755))

	n, err := New(root, logger.NewNop()).Inject(context.Background(), "2024", t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, n)
}
