package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults apply when unset", func(t *testing.T) {
		t.Setenv("POSTGRES_HOST", "")
		t.Setenv("POSTGRES_PORT", "")
		t.Setenv("ARCHIVE_RETENTION_DAYS", "")
		t.Setenv("METRICS_ENABLED", "")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 0, cfg.Archive.RetentionDays)
		assert.True(t, cfg.Observability.MetricsEnabled)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("POSTGRES_HOST", "db.internal")
		t.Setenv("POSTGRES_PORT", "6432")
		t.Setenv("ARCHIVE_RETENTION_DAYS", "90")
		t.Setenv("METRICS_ENABLED", "false")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 6432, cfg.Database.Port)
		assert.Equal(t, 90, cfg.Archive.RetentionDays)
		assert.False(t, cfg.Observability.MetricsEnabled)
	})

	t.Run("unparseable numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("POSTGRES_PORT", "not-a-port")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 5432, cfg.Database.Port)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", c.DSN())
}
