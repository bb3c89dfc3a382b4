package journal

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

func clock() time.Time { return fixedNow }

func TestJournal_WritesLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := open(dir, clock)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "tidy_20240506_070809.log"), j.Path())

	j.Info("Organizing /tmp/inbox")
	j.LogOperation(oplog.Record{Kind: oplog.KindMove, Message: "/a -> /b"})
	j.LogOperation(oplog.Record{Kind: oplog.KindError, Message: "failed to move /c"})
	require.NoError(t, j.Close())

	data, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[2024-05-06 07:08:09] [INFO] Organizing /tmp/inbox", lines[0])
	assert.Equal(t, "[2024-05-06 07:08:09] [MOVE] /a -> /b", lines[1])
	assert.Equal(t, "[2024-05-06 07:08:09] [ERROR] failed to move /c", lines[2])

	errData, err := os.ReadFile(filepath.Join(dir, ErrorDir, "tidy_errors_20240506.log"))
	require.NoError(t, err)
	assert.Equal(t, "[2024-05-06 07:08:09] [ERROR] failed to move /c\n", string(errData))
}

func TestJournal_AfterClose(t *testing.T) {
	t.Parallel()

	j, err := open(t.TempDir(), clock)
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	j.LogOperation(oplog.Record{Kind: oplog.KindMove, Message: "ignored"})

	data, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestJournal_Concurrent(t *testing.T) {
	t.Parallel()

	j, err := Open(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 20; k++ {
				j.LogOperation(oplog.Record{Kind: oplog.KindDelete, Message: "Removed x"})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, j.Close())

	data, err := os.ReadFile(j.Path())
	require.NoError(t, err)
	assert.Equal(t, 200, strings.Count(string(data), "\n"))
}

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	ts := fixedNow.Add(-age)
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestMaintain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	day := 24 * time.Hour

	touch(t, filepath.Join(dir, "tidy_old.log"), 40*day)
	for i := 0; i < 5; i++ {
		touch(t, filepath.Join(dir, "tidy_"+string(rune('a'+i))+".log"), time.Duration(i+1)*time.Hour)
	}
	touch(t, filepath.Join(dir, "notes.txt"), 100*day)
	touch(t, filepath.Join(dir, ErrorDir, "tidy_errors_old.log"), 100*day)
	touch(t, filepath.Join(dir, ErrorDir, "tidy_errors_recent.log"), 60*day)

	removed := maintain(dir, Retention{KeepDays: 30, MaxFiles: 3, ErrorDays: 90}, fixedNow)

	assert.Equal(t, 4, removed)
	assert.NoFileExists(t, filepath.Join(dir, "tidy_old.log"))
	assert.FileExists(t, filepath.Join(dir, "tidy_a.log"))
	assert.FileExists(t, filepath.Join(dir, "tidy_b.log"))
	assert.FileExists(t, filepath.Join(dir, "tidy_c.log"))
	assert.NoFileExists(t, filepath.Join(dir, "tidy_d.log"))
	assert.NoFileExists(t, filepath.Join(dir, "tidy_e.log"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"), "only .log files are managed")
	assert.NoFileExists(t, filepath.Join(dir, ErrorDir, "tidy_errors_old.log"))
	assert.FileExists(t, filepath.Join(dir, ErrorDir, "tidy_errors_recent.log"))
}

func TestMaintain_MissingDirectory(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Maintain(filepath.Join(t.TempDir(), "missing"), DefaultRetention()))
}
