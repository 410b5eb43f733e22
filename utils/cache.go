// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"experiencebylocals/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (tags and idempotency keys).
	CacheClient *redis.Client
	// SessionCacheClient caches "who am I" lookups per backend session.
	SessionCacheClient *redis.Client
	// ChatStateClient stores chat reconciliation state per session.
	ChatStateClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitRedis connects every Redis client the gateway uses.
func InitRedis() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	SessionCacheClient = newRedisClient(config.AppConfig.RedisSessionDB, "Session Cache")
	ChatStateClient = newRedisClient(config.AppConfig.RedisChatDB, "Chat State")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	}
	return CacheClient
}

// GetSessionCacheClient returns the Redis client for session lookups.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		SessionCacheClient = newRedisClient(config.AppConfig.RedisSessionDB, "Session Cache")
	}
	return SessionCacheClient
}

// GetChatStateClient returns the Redis client for chat state.
func GetChatStateClient() *redis.Client {
	if ChatStateClient == nil {
		ChatStateClient = newRedisClient(config.AppConfig.RedisChatDB, "Chat State")
	}
	return ChatStateClient
}

// RedisClients lists the connected clients, for health checks.
func RedisClients() []*redis.Client {
	var clients []*redis.Client
	for _, c := range []*redis.Client{CacheClient, SessionCacheClient, ChatStateClient} {
		if c != nil {
			clients = append(clients, c)
		}
	}
	return clients
}
