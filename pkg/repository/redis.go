package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/latchjack/burger/pkg/burger"
	"github.com/latchjack/burger/pkg/config"
)

const (
	ingredientsKey = "ingredients"
	ingredientsTTL = 5 * time.Minute
	sessionTTL     = 24 * time.Hour
)

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON decodes the value at key into dest. A missing key is ErrNotFound.
func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Cache for the ingredients document
func (r *RedisRepository) CacheIngredients(ctx context.Context, ingredients burger.Ingredients) error {
	return r.SetJSON(ctx, ingredientsKey, ingredients, ingredientsTTL)
}

func (r *RedisRepository) CachedIngredients(ctx context.Context) (burger.Ingredients, error) {
	var ingredients burger.Ingredients
	if err := r.GetJSON(ctx, ingredientsKey, &ingredients); err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *RedisRepository) InvalidateIngredients(ctx context.Context) error {
	return r.Del(ctx, ingredientsKey)
}

// Builder session snapshots
func (r *RedisRepository) SaveSession(ctx context.Context, id string, state burger.State) error {
	return r.SetJSON(ctx, sessionKey(id), state, sessionTTL)
}

func (r *RedisRepository) LoadSession(ctx context.Context, id string) (burger.State, error) {
	var state burger.State
	err := r.GetJSON(ctx, sessionKey(id), &state)
	return state, err
}

func (r *RedisRepository) DeleteSession(ctx context.Context, id string) error {
	return r.Del(ctx, sessionKey(id))
}

func sessionKey(id string) string {
	return fmt.Sprintf("builder:%s", id)
}
