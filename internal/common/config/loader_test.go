package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: insider_risk
    user: ${TEST_DB_USER}
  redis:
    address: localhost:6379
workers:
  compute-assessment:
    enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("TEST_DB_USER", "scorer")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "scorer", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "2024.1", cfg.Scoring.CatalogVersion)
	assert.Equal(t, 800, cfg.Benchmark.LookupTimeout)
	assert.Equal(t, 180, cfg.Benchmark.FreshnessWindow)
	assert.Equal(t, RefreshPublisherZeebe, cfg.Benchmark.RefreshPublisher)
	assert.Equal(t, ":8080", cfg.Server.Address)

	wc := GetWorkerConfig(cfg, "compute-assessment")
	assert.False(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 3, wc.MaxRetries)
	assert.False(t, IsWorkerEnabled(cfg, "compute-assessment"))
	assert.True(t, IsWorkerEnabled(cfg, "send-assessment-email"))
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		extra    string
		contains string
	}{
		{
			name:     "unknown refresh publisher",
			extra:    "benchmark:\n  refresh_publisher: kafka\n",
			contains: "benchmark",
		},
		{
			name:     "sns publisher without topic",
			extra:    "benchmark:\n  refresh_publisher: sns\n",
			contains: "RefreshTopicARN",
		},
		{
			name:     "threshold out of range",
			extra:    "scoring:\n  needs_attention_threshold: 140\n",
			contains: "scoring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DB_USER", "scorer")
			_, err := LoadFromFile(writeConfig(t, minimalConfig+tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoadFromFile_MissingBroker(t *testing.T) {
	_, err := LoadFromFile(writeConfig(t, "database:\n  postgres:\n    host: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camunda.broker_address is required")
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 800*time.Millisecond, GetDuration(800))
	assert.Equal(t, 15*time.Minute, Seconds(900))
	assert.Equal(t, 48*time.Hour, Days(2))
}
