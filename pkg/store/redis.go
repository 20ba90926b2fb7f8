package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/teahouse-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis is the go-redis backed Store implementation. Records live under
// the caller-provided namespaced keys with no TTL.
type Redis struct {
	client *redis.Client
}

// NewRedisClient bootstraps a raw redis client with pooling/timeouts and
// verifies connectivity. The bus shares this client for pub/sub.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedis wraps an already-connected client as a Store.
func NewRedis(client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &Redis{client: client}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (r *Redis) Get(ctx context.Context, key string, out any) error {
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read record "+key)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "decode record "+key)
	}
	return nil
}

func (r *Redis) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "encode record "+key)
	}
	if err := r.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "write record "+key)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "remove record "+key)
	}
	return nil
}

// Ping verifies the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
