package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RegistryClient reads the registry. Kept separate from ServiceRegistrar so
// consumers (like the reconciler's assignment manager) can query without
// registering anything.
type RegistryClient struct {
	redisClient    redis.UniversalClient
	serviceTimeout time.Duration
	logger         *zap.SugaredLogger
}

// NewRegistryClient takes an already initialized Redis client.
func NewRegistryClient(redisClient redis.UniversalClient, serviceTimeout time.Duration, logger *zap.SugaredLogger) *RegistryClient {
	return &RegistryClient{
		redisClient:    redisClient,
		serviceTimeout: serviceTimeout,
		logger:         logger,
	}
}

// GetActiveServices retrieves the active instances of a service type, keyed
// by instance ID. Instances whose last heartbeat is older than the service
// timeout are filtered out.
func (rc *RegistryClient) GetActiveServices(ctx context.Context, serviceType string) (map[string]ServiceInfo, error) {
	key := RedisRegistryHashPrefix + serviceType
	results, err := rc.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get all services of type %s from Redis: %w", serviceType, err)
	}

	activeServices := make(map[string]ServiceInfo)
	now := time.Now()

	for instanceID, infoJSON := range results {
		var info ServiceInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			// Skip malformed entries; the registrar's cleanup loop removes them.
			rc.logger.Warnf("RegistryClient: failed to unmarshal ServiceInfo for ID %s (type %s): %v", instanceID, serviceType, err)
			continue
		}
		if now.Sub(time.UnixMilli(info.LastSeen)) <= rc.serviceTimeout {
			activeServices[instanceID] = info
		}
	}
	return activeServices, nil
}
