package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

const dialTimeout = 5 * time.Second

// Options maps the configuration onto client options. The notification inbox
// and the task queue connect with the same settings.
func Options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		ClientName:  cfg.AppName,
		DialTimeout: dialTimeout,
	}
}

// ConnectRedis opens a client and checks it with a PING before returning.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}

	utils.Logger.WithField("addr", cfg.RedisAddr).WithField("db", cfg.RedisDB).Info("Connected to Redis")
	return client, nil
}

// DisconnectRedis closes the client. A nil client is ignored.
func DisconnectRedis(client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	utils.Logger.Info("Redis connection closed")
	return nil
}
