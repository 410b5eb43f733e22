// File: utils/constants.go
package utils

import "time"

// TagsCacheKey holds the serialized tag list.
const TagsCacheKey = "tags:all"

// IdempotencyPrefix is the prefix for Idempotency-Key records.
const IdempotencyPrefix = "idempotency:"

// IdempotencyLockTTL bounds how long an in-progress key blocks retries.
const IdempotencyLockTTL = 30 * time.Second

// IdempotencyResultTTL is how long a finished request's response is replayed.
const IdempotencyResultTTL = 24 * time.Hour

// HealthCheckInterval is the period of the background health monitor.
const HealthCheckInterval = 60 * time.Second

// ChatStateTTL is how long a session's chat login record is kept.
const ChatStateTTL = 14 * 24 * time.Hour

// ServerShutdownTimeout bounds graceful shutdown.
const ServerShutdownTimeout = 10 * time.Second
