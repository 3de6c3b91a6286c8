package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CommonConfig holds configuration fields shared across services.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis:6379")
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry
	HeartbeatTTL            time.Duration // How long an instance counts as alive without a heartbeat
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries
	ServiceIP               string        // The IP this service advertises for registration (Pod IP)
	ServicePort             int           // The port this service listens on, used for registration
}

// RegistrationServiceConfig holds configuration specific to the
// tournament registration service.
type RegistrationServiceConfig struct {
	CommonConfig
	ListenAddr string // Address for the HTTP server (e.g., ":8083")

	MongoDBConnStr               string
	MongoDBDatabase              string
	MongoDBTournamentsCollection string
	MongoDBDatesCollection       string // legacy date buckets
	MongoDBTeamsCollection       string
	MongoDBInvitesCollection     string
	MongoDBProfilesCollection    string

	JWTSecret string // HMAC secret for bearer tokens

	ReconcileInterval   time.Duration // How often the stale-team sweeper runs
	ReconcileDeadline   time.Duration // How long an under-sized roster may persist
	ReconcileBatchLimit int           // Max teams disbanded per sweep iteration
	IGNVerifyInterval   time.Duration // How often the Mojang IGN verifier runs
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"redis:6379"}
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Injected by Kubernetes; fall back for local development.
	cfg.ServiceIP = os.Getenv("POD_IP")
	if cfg.ServiceIP == "" {
		cfg.ServiceIP = "0.0.0.0"
	}

	return cfg, nil
}

// LoadRegistrationServiceConfig loads configuration for the registration service.
func LoadRegistrationServiceConfig() (*RegistrationServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for registration-service: %w", err)
	}

	cfg := &RegistrationServiceConfig{
		CommonConfig:                 common,
		ListenAddr:                   os.Getenv("REGISTRATION_SERVICE_LISTEN_ADDR"),
		MongoDBConnStr:               os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:              os.Getenv("MONGODB_DATABASE"),
		MongoDBTournamentsCollection: os.Getenv("MONGODB_TOURNAMENTS_COLLECTION"),
		MongoDBDatesCollection:       os.Getenv("MONGODB_DATES_COLLECTION"),
		MongoDBTeamsCollection:       os.Getenv("MONGODB_TEAMS_COLLECTION"),
		MongoDBInvitesCollection:     os.Getenv("MONGODB_INVITES_COLLECTION"),
		MongoDBProfilesCollection:    os.Getenv("MONGODB_PROFILES_COLLECTION"),
		JWTSecret:                    os.Getenv("JWT_SECRET"),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8083"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017"
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "minetourney"
	}
	if cfg.MongoDBTournamentsCollection == "" {
		cfg.MongoDBTournamentsCollection = "tournaments"
	}
	if cfg.MongoDBDatesCollection == "" {
		cfg.MongoDBDatesCollection = "tournament_dates"
	}
	if cfg.MongoDBTeamsCollection == "" {
		cfg.MongoDBTeamsCollection = "teams"
	}
	if cfg.MongoDBInvitesCollection == "" {
		cfg.MongoDBInvitesCollection = "invites"
	}
	if cfg.MongoDBProfilesCollection == "" {
		cfg.MongoDBProfilesCollection = "profiles"
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.ReconcileDeadline, err = getDuration("RECONCILE_DEADLINE", 48*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.ReconcileBatchLimit, err = getInt("RECONCILE_BATCH_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	if cfg.ReconcileBatchLimit <= 0 {
		return nil, fmt.Errorf("RECONCILE_BATCH_LIMIT must be positive, got %d", cfg.ReconcileBatchLimit)
	}
	cfg.IGNVerifyInterval, err = getDuration("IGN_VERIFY_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from REGISTRATION_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// extractPort extracts the numeric port from a listen address
// (e.g., ":8083" -> 8083, "0.0.0.0:8083" -> 8083).
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
