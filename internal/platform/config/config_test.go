package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/identity/saidnumber"
	rlmodels "compliance/internal/ratelimit/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, int(saidnumber.DefaultPivot), cfg.Identity.CenturyPivot)
	assert.Equal(t, 100, cfg.Identity.BatchLimit)
	assert.True(t, cfg.UsesDevelopmentSecrets())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("COMPLIANCE_SERVER_ADDR", ":9090")
	t.Setenv("COMPLIANCE_IDENTITY_CENTURY_PIVOT", "30")
	t.Setenv("COMPLIANCE_IDENTITY_STRICT_CALENDAR", "true")
	t.Setenv("COMPLIANCE_KAFKA_BROKERS", "b1:9092, b2:9092,,b1:9092")
	t.Setenv("COMPLIANCE_REDIS_READ_TIMEOUT", "2s")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Identity.CenturyPivot)
	assert.True(t, cfg.Identity.StrictCalendar)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.BrokerList())
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 2*time.Second, cfg.Redis.ReadTimeout)
	assert.Len(t, cfg.Identity.ValidatorOptions(), 2)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compliance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n  format: text\nidentity:\n  batch_limit: 5\n"), 0o600))
	t.Setenv("COMPLIANCE_CONFIG_FILE", path)
	t.Setenv("COMPLIANCE_IDENTITY_BATCH_LIMIT", "7")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 7, cfg.Identity.BatchLimit, "environment wins over file")
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("COMPLIANCE_IDENTITY_CENTURY_PIVOT", "150")
	t.Setenv("COMPLIANCE_IDENTITY_BATCH_CONCURRENCY", "0")
	t.Setenv("COMPLIANCE_LOG_FORMAT", "xml")

	_, err := load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "century_pivot")
	assert.Contains(t, err.Error(), "batch_concurrency")
	assert.Contains(t, err.Error(), "log.format")
}

func TestMissingConfigFileFails(t *testing.T) {
	t.Setenv("COMPLIANCE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := load(viper.New())
	assert.Error(t, err)
}

func TestRateLimitLimits(t *testing.T) {
	t.Setenv("COMPLIANCE_RATELIMIT_WINDOW", "30s")
	t.Setenv("COMPLIANCE_RATELIMIT_BATCH_PER_OPERATOR", "3")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.True(t, cfg.RateLimit.Enabled)

	limits := cfg.RateLimit.Limits()
	assert.Equal(t, rlmodels.Limit{RequestsPerWindow: 3, Window: 30 * time.Second}, limits.PerOperator[rlmodels.ClassBatch])
	assert.Equal(t, 120, limits.PerIP[rlmodels.ClassValidate].RequestsPerWindow)
	for _, class := range []rlmodels.EndpointClass{rlmodels.ClassValidate, rlmodels.ClassBatch, rlmodels.ClassRead} {
		assert.Contains(t, limits.PerIP, class)
		assert.Contains(t, limits.PerOperator, class)
	}
}

func TestRateLimitValidation(t *testing.T) {
	t.Run("zero budget rejected while enabled", func(t *testing.T) {
		t.Setenv("COMPLIANCE_RATELIMIT_READ_PER_IP", "0")
		_, err := load(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ratelimit.read_per_ip")
	})

	t.Run("budgets ignored when disabled", func(t *testing.T) {
		t.Setenv("COMPLIANCE_RATELIMIT_ENABLED", "false")
		t.Setenv("COMPLIANCE_RATELIMIT_READ_PER_IP", "0")
		_, err := load(viper.New())
		require.NoError(t, err)
	})
}
