package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/common/logger"
)

var (
	redisClient *redis.Client
	redisLocker *redislock.Client
	redisOnce   sync.Once
)

// NewRedisClient builds a client for the contact cache and the sync locks.
func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// GetRedis returns the shared client. A failed ping is logged but not fatal:
// the contact cache degrades to direct Holded calls.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		redisClient = NewRedisClient(config.Load())
		redisLocker = redislock.New(redisClient)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.WithError(err).Error("Failed to connect to Redis")
			return
		}
		logger.Log.WithField("addr", redisClient.Options().Addr).Info("Connected to Redis")
	})

	return redisClient
}

// GetRedisLocker returns the distributed lock client bound to the shared Redis.
func GetRedisLocker() *redislock.Client {
	GetRedis()
	return redisLocker
}

func CloseRedis() error {
	if redisClient == nil {
		return nil
	}
	return redisClient.Close()
}
