/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for per-tenant library
// listings and metadata records, with graceful fallback when Redis is down.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Default TTL values for different cache types
const (
	DefaultTrackListTTL = 5 * time.Minute
	DefaultTrackMetaTTL = 1 * time.Hour
)

// Key prefixes for Redis cache
const (
	KeyTrackList = "squonk:cache:tracks:" // + tenant_id
	KeyTrackMeta = "squonk:cache:meta:"   // + tenant_id/track_id
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TrackListTTL time.Duration
	TrackMetaTTL time.Duration
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:    "localhost:6379",
		TrackListTTL: DefaultTrackListTTL,
		TrackMetaTTL: DefaultTrackMetaTTL,
	}
}

// CachedMeta mirrors the metadata sidecar record.
type CachedMeta struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool
}

// New creates a new cache instance. An unreachable Redis yields a disabled
// cache, not an error; callers keep working against storage directly.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) isDisabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.disabled
}

func trackListKey(tenantID int64) string {
	return KeyTrackList + strconv.FormatInt(tenantID, 10)
}

func trackMetaKey(tenantID int64, trackID string) string {
	return fmt.Sprintf("%s%d/%s", KeyTrackMeta, tenantID, trackID)
}

// GetTrackList returns the cached track listing for a tenant.
func (c *Cache) GetTrackList(ctx context.Context, tenantID int64) ([]string, bool) {
	if c.isDisabled() {
		return nil, false
	}

	data, err := c.client.Get(ctx, trackListKey(tenantID)).Bytes()
	if err != nil {
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		c.logger.Debug().Err(err).Int64("tenant_id", tenantID).Msg("corrupt track list cache entry")
		return nil, false
	}
	return ids, true
}

// SetTrackList caches a tenant's track listing.
func (c *Cache) SetTrackList(ctx context.Context, tenantID int64, ids []string) error {
	if c.isDisabled() {
		return nil
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal track list: %w", err)
	}
	return c.client.Set(ctx, trackListKey(tenantID), data, c.config.TrackListTTL).Err()
}

// InvalidateTrackList drops a tenant's cached listing.
func (c *Cache) InvalidateTrackList(ctx context.Context, tenantID int64) {
	if c.isDisabled() {
		return
	}
	if err := c.client.Del(ctx, trackListKey(tenantID)).Err(); err != nil {
		c.logger.Debug().Err(err).Int64("tenant_id", tenantID).Msg("failed to invalidate track list")
	}
}

// GetTrackMeta returns a cached metadata record.
func (c *Cache) GetTrackMeta(ctx context.Context, tenantID int64, trackID string) (*CachedMeta, bool) {
	if c.isDisabled() {
		return nil, false
	}

	data, err := c.client.Get(ctx, trackMetaKey(tenantID, trackID)).Bytes()
	if err != nil {
		return nil, false
	}

	var meta CachedMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

// SetTrackMeta caches a metadata record.
func (c *Cache) SetTrackMeta(ctx context.Context, tenantID int64, trackID string, meta CachedMeta) error {
	if c.isDisabled() {
		return nil
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal track meta: %w", err)
	}
	return c.client.Set(ctx, trackMetaKey(tenantID, trackID), data, c.config.TrackMetaTTL).Err()
}

// InvalidateTrackMeta drops a cached metadata record.
func (c *Cache) InvalidateTrackMeta(ctx context.Context, tenantID int64, trackID string) {
	if c.isDisabled() {
		return
	}
	if err := c.client.Del(ctx, trackMetaKey(tenantID, trackID)).Err(); err != nil {
		c.logger.Debug().Err(err).Str("track_id", trackID).Msg("failed to invalidate track meta")
	}
}
