package registry

const (
	// RedisRegistryHashPrefix is the prefix for Redis hash keys holding
	// service registration data. Full key format: "services:<serviceType>".
	RedisRegistryHashPrefix = "services:"
)
