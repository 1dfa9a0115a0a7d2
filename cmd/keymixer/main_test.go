package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/keymixer/internal/config"
)

func newTestRoot(t *testing.T, keystore string, args ...string) (int, string, string) {
	t.Helper()

	dir := t.TempDir()
	keysPath := filepath.Join(dir, "keystore.json")
	require.NoError(t, os.WriteFile(keysPath, []byte(keystore), 0600))
	metricsPath := filepath.Join(dir, "keymixer.prom")

	cfg := config.Default()
	root := newRootCommand(cfg)

	var stderr bytes.Buffer
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&stderr)
	root.SetArgs(append([]string{
		"--keystore", keysPath,
		"--log-file", filepath.Join(dir, ".keymixer.log"),
		"--metrics-file", metricsPath,
		"--no-color",
	}, args...))

	code := execute(root, cfg)
	return code, stderr.String(), metricsPath
}

func TestExecute_ExecPassesExitCodeAndFlushesMetrics(t *testing.T) {
	code, stderr, metricsPath := newTestRoot(t,
		`{"MAIN_EXEC_SVC": ["rotated-key-1"]}`,
		"exec", "--", "sh", "-c", "exit 3")

	assert.Equal(t, 3, code)
	assert.NotContains(t, stderr, "Error:")

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `keymixer_key_access_total{service="MAIN_EXEC_SVC"} 1`)
}

func TestExecute_CommandErrorFlushesMetrics(t *testing.T) {
	code, stderr, metricsPath := newTestRoot(t, `{"MAIN_GET_SVC": []}`, "get", "MAIN_GET_SVC")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no keys found for service: MAIN_GET_SVC")

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keymixer_keystore_operation_total")
}

func TestExecute_Success(t *testing.T) {
	code, stderr, metricsPath := newTestRoot(t, `{"MAIN_OK_SVC": ["k1"]}`, "get", "MAIN_OK_SVC")

	assert.Equal(t, 0, code)
	assert.Empty(t, stderr)
	assert.FileExists(t, metricsPath)
}
