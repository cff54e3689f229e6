package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, logLevelEnv, thresholdEnv, workersEnv, classifierEnv,
		classifierURLEnv, classifierKeyEnv, storageDriverEnv, storageDSNEnv,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(envFileEnv, filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.InDelta(t, 0.4, cfg.Labeling.ZeroShotThreshold, 1e-9)
	assert.Equal(t, "This article is about {}.", cfg.Labeling.HypothesisTemplate)
	assert.Equal(t, BackendHTTP, cfg.Classifier.Backend)
	assert.Equal(t, StorageNone, cfg.Storage.Driver)
	assert.Equal(t, 20, cfg.Analysis.TopWords)
}

func TestLoadMergesFile(t *testing.T) {
	isolateEnv(t)

	path := writeConfig(t, `
labeling:
  zero_shot_threshold: 0
  workers: 8
  keywords:
    Sports: [cricket]
  regions:
    Le Monde: Europe
classifier:
  backend: hugot
  timeout: 45s
storage:
  driver: sqlite
  dsn: /tmp/news.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Labeling.ZeroShotThreshold, "explicit zero threshold is kept")
	assert.Equal(t, 8, cfg.Labeling.Workers)
	assert.Equal(t, []string{"cricket"}, cfg.Labeling.Keywords["Sports"])
	assert.Equal(t, "Europe", cfg.Labeling.Regions["Le Monde"])
	assert.Equal(t, BackendLocal, cfg.Classifier.Backend)
	assert.Equal(t, 45*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, "/tmp/news.db", cfg.Storage.DSN)
	assert.Equal(t, "This article is about {}.", cfg.Labeling.HypothesisTemplate, "unset keys keep defaults")
}

func TestLoadEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv(thresholdEnv, "0.55")
	t.Setenv(workersEnv, "2")
	t.Setenv(classifierEnv, "chatgpt")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.InDelta(t, 0.55, cfg.Labeling.ZeroShotThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Labeling.Workers)
	assert.Equal(t, BackendChatGPT, cfg.Classifier.Backend)
}

func TestLoadEnvFile(t *testing.T) {
	isolateEnv(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("NEWSLABEL_WORKERS=6\n"), 0o600))
	t.Setenv(envFileEnv, envFile)
	// gotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv(workersEnv))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Labeling.Workers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	isolateEnv(t)

	cases := map[string]string{
		"threshold":  "labeling:\n  zero_shot_threshold: 1.5\n",
		"workers":    "labeling:\n  workers: -1\n",
		"backend":    "classifier:\n  backend: magic\n",
		"storage":    "storage:\n  driver: oracle\n",
		"log level":  "logging:\n  level: loud\n",
		"log format": "logging:\n  format: xml\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadRejectsUnknownLogLevelFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv(logLevelEnv, "verbose")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
}

func TestLoadMissingFile(t *testing.T) {
	isolateEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
