package config

import (
	"time"

	"bloodconnect/internal/utils"
)

// DispatchConfig tunes notification fan-out. The emergency search radius is
// fixed at utils.EmergencyRadiusKM and deliberately absent here.
type DispatchConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	MaxSearchLimit int           `yaml:"max_search_limit"`
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		MaxConcurrency: getEnvAsInt("DISPATCH_MAX_CONCURRENCY", utils.NotificationConcurrency),
		AttemptTimeout: getEnvAsDuration("DISPATCH_ATTEMPT_TIMEOUT", utils.NotificationTimeout),
		IdempotencyTTL: getEnvAsDuration("DISPATCH_IDEMPOTENCY_TTL", utils.IdempotencyKeyTTL),
		MaxSearchLimit: getEnvAsInt("SEARCH_MAX_LIMIT", utils.MaxSearchLimit),
	}
}
