//nolint:paralleltest // Tests modify package-level session log state, cannot run in parallel
package picc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeSessionLog(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { _ = CloseSessionLog() })
}

func TestInitSessionLogCreatesFile(t *testing.T) {
	closeSessionLog(t)
	dir := t.TempDir()

	path, err := InitSessionLog(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `^picc_\d{8}_\d{6}\.log$`, filepath.Base(path))
	assert.Equal(t, path, SessionLogPath())

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestSessionLogContent(t *testing.T) {
	closeSessionLog(t)

	path, err := InitSessionLog(t.TempDir())
	require.NoError(t, err)

	Debugf("RX %s", "E0 80 31 73")
	require.NoError(t, CloseSessionLog())

	content, err := os.ReadFile(path) //nolint:gosec // path is from InitSessionLog
	require.NoError(t, err)

	s := string(content)
	assert.True(t, strings.HasPrefix(s, "=== PICC Emulator Session Log ===\n"))
	for _, field := range []string{"Started:", "PID:", "OS:", "Go Version:", "Deadlock detection:", "Command Line:"} {
		assert.Contains(t, s, field)
	}
	assert.Contains(t, s, "DEBUG: RX E0 80 31 73")
	assert.Contains(t, s, "=== Session ended ===")
}

func TestInitSessionLogMissingDirectory(t *testing.T) {
	closeSessionLog(t)

	_, err := InitSessionLog(filepath.Join(t.TempDir(), "does", "not", "exist"))
	require.Error(t, err)
	assert.Empty(t, SessionLogPath())
}

func TestCloseSessionLogWithoutOpen(t *testing.T) {
	require.NoError(t, CloseSessionLog())
	assert.NoError(t, CloseSessionLog())
}

func TestSessionLogReopen(t *testing.T) {
	closeSessionLog(t)

	first, err := InitSessionLog(t.TempDir())
	require.NoError(t, err)
	second, err := InitSessionLog(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, second, SessionLogPath())

	Debugln("only in the second log")
	require.NoError(t, CloseSessionLog())
	assert.Empty(t, SessionLogPath())

	content, err := os.ReadFile(first) //nolint:gosec // path is from InitSessionLog
	require.NoError(t, err)
	assert.NotContains(t, string(content), "only in the second log")

	content, err = os.ReadFile(second) //nolint:gosec // path is from InitSessionLog
	require.NoError(t, err)
	assert.Contains(t, string(content), "only in the second log")
}
