package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuspass/campuspass-admin/internal/record"
)

const (
	cacheVersionKey = "campuspass:snapshot:version"
	// BumpChannel carries snapshot version bumps between instances.
	BumpChannel = "campuspass.snapshot.bump"
)

// Cache stores snapshots in Redis under versioned keys. A nil Cache or one
// without a client passes every load through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes the cache key for parts with the current version.
func (c *Cache) Key(ctx context.Context, parts ...string) (string, error) {
	joined := "campuspass:snapshot:" + strings.Join(parts, ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// Fetch returns the cached snapshot at key or fills it from loader.
func (c *Cache) Fetch(ctx context.Context, key string, loader func(context.Context) ([]record.Record, error)) ([]record.Record, error) {
	if loader == nil {
		return nil, errors.New("store: loader required")
	}
	if !c.enabled() {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return record.Decode(payload)
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	records, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Store(ctx, key, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Store writes records at key.
func (c *Cache) Store(ctx context.Context, key string, records []record.Record) error {
	if !c.enabled() {
		return nil
	}
	raw, err := record.Encode(records)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Bump invalidates every cached snapshot and tells other instances.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation applies version bumps published by other instances
// until ctx ends.
func (c *Cache) ListenForInvalidation(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, BumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("store: subscribe: %w", err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					continue
				}
				current, err := c.client.Get(ctx, cacheVersionKey).Int64()
				if err == nil && current >= ver {
					continue
				}
				_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
			}
		}
	}()
	return nil
}
