package common

const (
	// RedisKeySweepTaskPrefix is the key prefix under which async sweep task
	// status documents are stored, keyed by run ID.
	RedisKeySweepTaskPrefix = "sentinel:sweep:task:"

	// DefaultTenantID is the tenant used when no tenant scoping applies.
	DefaultTenantID = "default_tenant"

	// GlobalTenantTag marks signals produced by the shared market sweep rather
	// than a tenant-specific path.
	GlobalTenantTag = "global"
)
