package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDotEnvLine(t *testing.T) {
	key, value, ok := parseDotEnvLine("GOOGLE_API_KEY=abc123")
	require.True(t, ok)
	assert.Equal(t, "GOOGLE_API_KEY", key)
	assert.Equal(t, "abc123", value)

	key, value, ok = parseDotEnvLine(`export MIMOSA_ADDR="127.0.0.1:9000"`)
	require.True(t, ok)
	assert.Equal(t, "MIMOSA_ADDR", key)
	assert.Equal(t, "127.0.0.1:9000", value)

	_, _, ok = parseDotEnvLine("# a comment")
	assert.False(t, ok)

	_, _, ok = parseDotEnvLine("")
	assert.False(t, ok)

	_, _, ok = parseDotEnvLine("no equals sign")
	assert.False(t, ok)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("MIMOSA_TEST_A=from-file\nMIMOSA_TEST_B=from-file\n"), 0o644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	t.Setenv("MIMOSA_TEST_A", "from-env")
	os.Unsetenv("MIMOSA_TEST_B")
	t.Cleanup(func() { os.Unsetenv("MIMOSA_TEST_B") })

	LoadDotEnv()

	assert.Equal(t, "from-env", os.Getenv("MIMOSA_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("MIMOSA_TEST_B"))
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: 127.0.0.1:9100\nmodel: gemini-1.5-pro-latest\n"), 0o644))

	settings := loadSettings(path)
	assert.Equal(t, "127.0.0.1:9100", settings.ListenAddr)
	assert.Equal(t, "gemini-1.5-pro-latest", settings.Model)
	assert.Empty(t, settings.DiaryFile)
}

func TestLoadSettings_MissingOrBroken(t *testing.T) {
	settings := loadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, Settings{}, settings)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\nnot yaml at all ["), 0o644))
	settings = loadSettings(path)
	assert.Equal(t, Settings{}, settings)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MIMOSA_ADDR", "127.0.0.1:9999")
	t.Setenv("MIMOSA_DIARY_FILE", filepath.Join(home, "elsewhere.json"))
	t.Setenv("MIMOSA_MODEL", "gemini-2.0-flash")
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.Equal(t, filepath.Join(home, "elsewhere.json"), cfg.DiaryFile)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, filepath.Join(home, ".mimosa"), cfg.DataDir)
	assert.DirExists(t, cfg.DataDir)
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MIMOSA_ADDR", "")
	t.Setenv("MIMOSA_DIARY_FILE", "")
	t.Setenv("MIMOSA_MODEL", "")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:8990", cfg.ListenAddr)
	assert.Equal(t, filepath.Join(home, ".mimosa", "diary_data.json"), cfg.DiaryFile)
	assert.Empty(t, cfg.Model)
}
