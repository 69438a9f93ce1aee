package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultDebounceMs, cfg.Debounce())
	assert.Equal(t, DefaultPlaceholder, cfg.Placeholder)
	assert.True(t, cfg.Focused())
	assert.Equal(t, "id", cfg.IdentityKey)
	assert.Zero(t, cfg.ResultLimit)
	assert.False(t, cfg.PerField)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
debounce_ms: 150
placeholder: "Search members..."
auto_focus: false
result_limit: 50
per_field: true
identity_key: member_id
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Debounce())
	assert.Equal(t, "Search members...", cfg.Placeholder)
	assert.False(t, cfg.Focused())
	assert.Equal(t, 50, cfg.ResultLimit)
	assert.True(t, cfg.PerField)
	assert.Equal(t, "member_id", cfg.IdentityKey)
}

func TestLoadExplicitZeroDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debounce_ms: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Debounce(), "explicit 0 must not fall back to the default")
}

func TestLoadMissingExplicitPathErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMissingDefaultPathYieldsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounceMs, cfg.Debounce())
}

func TestLoadRejectsNegativeDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debounce_ms: -5\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debounce_ms")
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debounce_ms: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config file")
}
