package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/lure/internal/config"
)

func TestPoolConfig_AppliesPoolSettings(t *testing.T) {
	cfg := &config.DatabaseConfig{
		URL:               "postgres://lure:pw@db.internal:5433/lure?sslmode=disable",
		MaxConns:          10,
		MinConns:          3,
		MaxConnLifetime:   2 * time.Minute,
		MaxConnIdleTime:   30 * time.Second,
		HealthCheckPeriod: 15 * time.Second,
	}

	pc, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "lure", pc.ConnConfig.Database)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, 2*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, 30*time.Second, pc.MaxConnIdleTime)
	assert.Equal(t, 15*time.Second, pc.HealthCheckPeriod)
}

func TestPoolConfig_ZeroValuesKeepDriverDefaults(t *testing.T) {
	pc, err := PoolConfig(&config.DatabaseConfig{URL: "postgres://lure:pw@localhost/lure"})
	require.NoError(t, err)

	assert.Greater(t, pc.MaxConns, int32(0))
	assert.Greater(t, pc.MaxConnLifetime, time.Duration(0))
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	_, err := PoolConfig(&config.DatabaseConfig{URL: "postgres://%zz"})
	assert.Error(t, err)
}
