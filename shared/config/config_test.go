package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistrationServiceConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadRegistrationServiceConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8083", cfg.ListenAddr)
	assert.Equal(t, 8083, cfg.ServicePort)
	assert.Equal(t, "minetourney", cfg.MongoDBDatabase)
	assert.Equal(t, "tournaments", cfg.MongoDBTournamentsCollection)
	assert.Equal(t, "tournament_dates", cfg.MongoDBDatesCollection)
	assert.Equal(t, "teams", cfg.MongoDBTeamsCollection)
	assert.Equal(t, "invites", cfg.MongoDBInvitesCollection)
	assert.Equal(t, "profiles", cfg.MongoDBProfilesCollection)
	assert.Equal(t, 10*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 48*time.Hour, cfg.ReconcileDeadline)
	assert.Equal(t, 100, cfg.ReconcileBatchLimit)
	assert.Equal(t, 30*time.Second, cfg.IGNVerifyInterval)
	assert.Equal(t, []string{"redis:6379"}, cfg.RedisAddrs)
}

func TestLoadRegistrationServiceConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadRegistrationServiceConfig()
	assert.Error(t, err)
}

func TestLoadRegistrationServiceConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REGISTRATION_SERVICE_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("RECONCILE_DEADLINE", "24h")
	t.Setenv("RECONCILE_BATCH_LIMIT", "25")
	t.Setenv("REDIS_ADDRS", "redis-a:6379, redis-b:6379")

	cfg, err := LoadRegistrationServiceConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServicePort)
	assert.Equal(t, 24*time.Hour, cfg.ReconcileDeadline)
	assert.Equal(t, 25, cfg.ReconcileBatchLimit)
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.RedisAddrs)
}

func TestLoadRegistrationServiceConfigBadBatchLimit(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RECONCILE_BATCH_LIMIT", "0")

	_, err := LoadRegistrationServiceConfig()
	assert.Error(t, err)
}

func TestLoadRegistrationServiceConfigBadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RECONCILE_INTERVAL", "not-a-duration")

	_, err := LoadRegistrationServiceConfig()
	assert.Error(t, err)
}

func TestExtractPort(t *testing.T) {
	port, err := extractPort(":8083")
	require.NoError(t, err)
	assert.Equal(t, 8083, port)

	port, err = extractPort("0.0.0.0:8083")
	require.NoError(t, err)
	assert.Equal(t, 8083, port)

	_, err = extractPort("no-port-here")
	assert.Error(t, err)
}
