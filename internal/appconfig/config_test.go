package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsApplyWithoutAFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.yml"), false)
	require.Error(t, err) // explicit path that does not exist is an error, not silently defaulted
	_ = cfg
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("cyber_range_dir: /srv/ranges\nparallel_ssh_concurrency: 10\n"), 0o644))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, "/srv/ranges", cfg.CyberRangeDir)
	assert.Equal(t, 10, cfg.ParallelSSHConcurrency)
	assert.Equal(t, 4, cfg.ImageDistributionConcurrency) // default preserved
}

func TestLoad_RejectsZeroConcurrency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("parallel_ssh_concurrency: 0\n"), 0o644))

	_, err := Load(path, false)
	assert.Error(t, err)
}

func TestLoad_RejectsOversizedConcurrency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("parallel_ssh_concurrency: 10000\n"), 0o644))

	_, err := Load(path, false)
	assert.Error(t, err)
}

func TestLoad_LegacyINI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("cyber_range_dir = /srv/legacy\n"), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/srv/legacy", cfg.CyberRangeDir)
}
