package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"CODEGEN_CONFIG", "CODEGEN_BACKEND", "CODEGEN_MODEL", "CODEGEN_LOG_LEVEL", "CODEGEN_STORE"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "codegen.toml")
	content := `
log_level = "debug"

[model]
backend = "dummy"

[formatter]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestGeneratePython(t *testing.T) {
	cfg := writeConfig(t)

	stdout, stderr, err := execute(t, "--config", cfg, "a python function that adds two numbers")
	require.NoError(t, err)

	assert.Contains(t, stdout, "def add(a: int, b: int) -> int:")
	assert.Contains(t, stdout, "return a + b")
	assert.NotContains(t, stdout, "Validation")
	assert.Contains(t, stderr, "Validation: true")
	// Logs stay quiet without --verbose.
	assert.NotContains(t, stderr, "generation finished")
}

func TestGenerateVerboseLogs(t *testing.T) {
	cfg := writeConfig(t)

	_, stderr, err := execute(t, "--config", cfg, "--verbose", "a python function that adds two numbers")
	require.NoError(t, err)
	assert.Contains(t, stderr, "generation finished")
}

func TestGenerateDemo(t *testing.T) {
	cfg := writeConfig(t)

	stdout, stderr, err := execute(t, "--config", cfg, "--demo")
	require.NoError(t, err)
	assert.Contains(t, stdout, "def add(a: int, b: int) -> int:")
	assert.Contains(t, stderr, "Validation: true")
}

func TestGenerateSQL(t *testing.T) {
	cfg := writeConfig(t)

	stdout, stderr, err := execute(t, "--config", cfg, "--lang", "sql", "--type", "sql", "recent users from the accounts table")
	require.NoError(t, err)
	assert.Contains(t, stdout, "FROM users")
	assert.Contains(t, stderr, "Validation: true")
}

func TestGenerateSavesArtifact(t *testing.T) {
	cfg := writeConfig(t)
	out := t.TempDir()

	_, stderr, err := execute(t, "--config", cfg, "--out", out, "a python function that adds two numbers")
	require.NoError(t, err)
	assert.Contains(t, stderr, "saved ")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	code, err := os.ReadFile(filepath.Join(out, entries[0].Name(), "generated.py"))
	require.NoError(t, err)
	assert.Contains(t, string(code), "def add(a: int, b: int) -> int:")
}

func TestGenerateErrors(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no description", []string{"--config", cfg}},
		{"blank description", []string{"--config", cfg, "   "}},
		{"unknown language", []string{"--config", cfg, "--lang", "cobol", "hello"}},
		{"bad sampling override", []string{"--config", cfg, "--top-p", "0", "hello"}},
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "nope.toml"), "hello"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			assert.Error(t, err)
			assert.Empty(t, stdout)
		})
	}
}
