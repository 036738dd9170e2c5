package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, name := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY", "QWEN_API_KEY",
		"DASHSCOPE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "JUHE_API_KEY",
	} {
		t.Setenv(name, "")
	}
	configFile = ""
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunMockPrintsReport(t *testing.T) {
	isolate(t)
	out := t.TempDir()

	stdout, stderr, err := execute(t, "run", "aapl", "--mock", "--holding-cost", "150", "--out", out)
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Investment research report: AAPL")
	assert.Contains(t, stdout, "## Market data (unavailable)")
	assert.Contains(t, stdout, "P6 - ")
	assert.Contains(t, stderr, "completed")
	assert.Contains(t, stderr, "report written to")

	matches, err := filepath.Glob(filepath.Join(out, "*", "report.md"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunMockWithoutExit(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "run", "00700", "--mock", "--no-exit")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Status: COMPLETED (3/3 stages)")
	assert.NotContains(t, stdout, "P6 - ")
}

func TestRunRejectsBadInput(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "run", "AAPL!", "--mock")
	assert.Error(t, err)

	_, _, err = execute(t, "run", "AAPL", "--mock", "--key", "nokey")
	assert.Error(t, err)
}

func TestRunWithoutKeyFails(t *testing.T) {
	isolate(t)

	stdout, stderr, err := execute(t, "run", "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "P1_RESEARCH")
	assert.Contains(t, stderr, "failed at P1_RESEARCH")
	assert.Empty(t, stdout)
}

func TestClassifyCommand(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "classify", "aapl", "00700", "sh600519", "12345678", "bad!")
	require.NoError(t, err)
	assert.Regexp(t, `aapl\s+US`, stdout)
	assert.Regexp(t, `00700\s+Hong Kong`, stdout)
	assert.Regexp(t, `sh600519\s+Shanghai/Shenzhen`, stdout)
	assert.Regexp(t, `12345678\s+unsupported`, stdout)
	assert.Regexp(t, `bad!\s+invalid`, stdout)
}

func TestStagesAndModelsCommands(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("alphacouncil.yaml", []byte("api_keys:\n  deepseek: file-key\n"), 0o600))

	stdout, _, err := execute(t, "stages")
	require.NoError(t, err)
	assert.Contains(t, stdout, "P1_RESEARCH")
	assert.Contains(t, stdout, "P6_SELL (optional)")
	assert.Contains(t, stdout, "cost")

	stdout, _, err = execute(t, "models")
	require.NoError(t, err)
	assert.Regexp(t, `DeepSeek\s+deepseek-chat\s+DeepSeek\s+configured`, stdout)
	assert.Contains(t, stdout, "missing")

	stdout, _, err = execute(t, "models", "--resolve")
	require.NoError(t, err)
	assert.Regexp(t, `gemini-pro\s+gemini-3-pro-preview\s+gemini`, stdout)
}

func TestParseKeys(t *testing.T) {
	creds, err := parseKeys([]string{"DeepSeek=abc", "juhe=j=k"})
	require.NoError(t, err)
	assert.Equal(t, "abc", creds.Get("deepseek"))
	assert.Equal(t, "j=k", creds.Get("juhe"))

	_, err = parseKeys([]string{"=abc"})
	assert.Error(t, err)
}
