package contextstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis-backed context store connection.
type RedisConfig struct {
	Address   string        `envconfig:"ADDRESS" default:"localhost:6379"`
	Password  string        `envconfig:"PASSWORD"`
	DB        int           `envconfig:"DB" default:"0"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" default:"chat:ctx:"`
	TTL       time.Duration `envconfig:"TTL" default:"168h"`
}

// Redis stores one JSON context blob per user key. Contexts expire after
// the configured TTL so an abandoned conversation does not pin memory in
// the cache forever.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (r *Redis) key(userID string) string { return r.prefix + userID }

func (r *Redis) Get(ctx context.Context, userID string) (*models.UserContext, error) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err == redis.Nil {
		return models.NewUserContext(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read context for %s: %w", userID, err)
	}

	var uctx models.UserContext
	if err := json.Unmarshal(raw, &uctx); err != nil {
		return nil, fmt.Errorf("decode context for %s: %w", userID, err)
	}
	return &uctx, nil
}

func (r *Redis) Update(ctx context.Context, uctx *models.UserContext) error {
	uctx.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(uctx)
	if err != nil {
		return fmt.Errorf("encode context for %s: %w", uctx.UserID, err)
	}
	if err := r.client.Set(ctx, r.key(uctx.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("write context for %s: %w", uctx.UserID, err)
	}
	return nil
}

func (r *Redis) AppendMessage(ctx context.Context, userID string, role models.Role, text string) error {
	uctx, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	uctx.Append(role, text)
	return r.Update(ctx, uctx)
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }
