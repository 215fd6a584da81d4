package kv

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendBolt     Backend = "bolt"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Option configures Open.
type Option func(*options)

type options struct {
	boltPath    string
	redisURL    string
	redisClient *redis.Client
	databaseURL string
	pool        *pgxpool.Pool
	keyPrefix   string
}

// WithBoltPath sets the database file used by the bolt backend.
func WithBoltPath(path string) Option {
	return func(o *options) { o.boltPath = path }
}

// WithRedisURL sets the connection URL used by the redis backend.
func WithRedisURL(url string) Option {
	return func(o *options) { o.redisURL = url }
}

// WithRedisClient hands an existing client to the redis backend.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redisClient = client }
}

// WithDatabaseURL sets the connection string used by the postgres backend.
func WithDatabaseURL(url string) Option {
	return func(o *options) { o.databaseURL = url }
}

// WithPool hands an existing pool to the postgres backend.
func WithPool(pool *pgxpool.Pool) Option {
	return func(o *options) { o.pool = pool }
}

// WithKeyPrefix namespaces keys in shared backends (redis).
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}

// Open creates the Store for backend.
func Open(ctx context.Context, backend Backend, opts ...Option) (Store, error) {
	o := &options{keyPrefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(o)
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendBolt:
		if o.boltPath == "" {
			return nil, fmt.Errorf("bolt path: %w", ErrInvalidConfig)
		}
		s, err := NewBoltStore(o.boltPath)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendRedis:
		client := o.redisClient
		if client == nil {
			if o.redisURL == "" {
				return nil, fmt.Errorf("redis url: %w", ErrInvalidConfig)
			}
			ropts, err := redis.ParseURL(o.redisURL)
			if err != nil {
				return nil, fmt.Errorf("parse redis url: %w", err)
			}
			client = redis.NewClient(ropts)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return NewRedisStore(client, o.keyPrefix), nil

	case BackendPostgres:
		var (
			s   *PostgresStore
			err error
		)
		switch {
		case o.pool != nil:
			s, err = newPostgresStore(ctx, o.pool)
		case o.databaseURL != "":
			s, err = NewPostgresStore(ctx, o.databaseURL)
		default:
			return nil, fmt.Errorf("database url: %w", ErrInvalidConfig)
		}
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%q: %w", backend, ErrInvalidBackend)
	}
}
