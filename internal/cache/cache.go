package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"gamenight/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is nil when no REDIS_ADDR is configured; callers fall back to
// the database in that case.
var RedisClient *redis.Client

const (
	recentPostsKey = "recent_posts"
	feedTTL        = 5 * time.Minute
)

// InitRedis connects to redis if an address is configured.
func InitRedis() {
	if config.AppConfig.RedisAddr == "" {
		log.Println("Redis not configured, feed caching disabled")
		return
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		log.Printf("Failed to connect to Redis, feed caching disabled: %v", err)
		RedisClient = nil
		return
	}

	log.Println("Redis connected successfully")
}

// SetRecentPosts caches the first unfiltered page of the community feed.
func SetRecentPosts(v interface{}) {
	if RedisClient == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	RedisClient.Set(context.Background(), recentPostsKey, data, feedTTL)
}

// GetRecentPosts loads the cached feed page into dest, reporting a hit.
func GetRecentPosts(dest interface{}) bool {
	if RedisClient == nil {
		return false
	}
	data, err := RedisClient.Get(context.Background(), recentPostsKey).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(data), dest) == nil
}

// InvalidateRecentPosts drops the cached feed page after any post write.
func InvalidateRecentPosts() {
	if RedisClient == nil {
		return
	}
	RedisClient.Del(context.Background(), recentPostsKey)
}
