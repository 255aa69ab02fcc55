package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigReportsLogFileFailure(t *testing.T) {
	dir := t.TempDir()

	// A regular file where the log directory should go makes MkdirAll fail
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := "logging:\n  level: info\n  file: " + filepath.Join(blocker, "logs", "app.log") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	orig := configFile
	configFile = cfgPath
	defer func() { configFile = orig }()

	_, err := loadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize logging")
}

func TestLoadConfigMergesFlags(t *testing.T) {
	cfg, err := loadConfig(map[string]interface{}{"delay": 42, "max-results": 50})
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Crawl.DelaySeconds)
	assert.Equal(t, 50, cfg.Crawl.MaxResults)
}
