/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/events"
)

// RedisBus fans events out over Redis pub/sub. When Redis is unreachable it
// degrades to the in-memory bus so single-node operation keeps working.
type RedisBus struct {
	client   *redis.Client
	logger   zerolog.Logger
	local    *events.Bus
	nodeID   string
	maxFails int

	mu       sync.RWMutex
	subs     map[events.EventType][]events.Subscriber
	channels map[events.EventType]*redis.PubSub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	degraded  bool
	failCount int
	lastCheck time.Time
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	MaxFailures   int
	CheckInterval time.Duration
}

// DefaultRedisConfig returns default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:          "localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		MaxFailures:   5,
		CheckInterval: 30 * time.Second,
	}
}

// NewRedisBus creates a Redis-backed bus. Connection failure at startup is
// not fatal; the bus starts degraded.
func NewRedisBus(cfg RedisConfig, nodeID string, logger zerolog.Logger) (*RedisBus, error) {
	nodeID = resolveNodeID(nodeID)
	ctx, cancel := context.WithCancel(context.Background())

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis connection failed, using in-memory fallback")
		cancel()
		return &RedisBus{
			logger:   logger,
			local:    events.NewBus(),
			nodeID:   nodeID,
			degraded: true,
			maxFails: cfg.MaxFailures,
			subs:     make(map[events.EventType][]events.Subscriber),
			channels: make(map[events.EventType]*redis.PubSub),
			ctx:      context.Background(),
		}, nil
	}

	logger.Info().Str("addr", cfg.Addr).Msg("Redis event bus initialized")

	return &RedisBus{
		client:   client,
		logger:   logger,
		local:    events.NewBus(),
		nodeID:   nodeID,
		maxFails: cfg.MaxFailures,
		subs:     make(map[events.EventType][]events.Subscriber),
		channels: make(map[events.EventType]*redis.PubSub),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Subscribe registers a subscriber for an event type.
func (rb *RedisBus) Subscribe(eventType events.EventType) events.Subscriber {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.degraded {
		return rb.local.Subscribe(eventType)
	}

	sub := make(events.Subscriber, 100)
	rb.subs[eventType] = append(rb.subs[eventType], sub)

	if _, exists := rb.channels[eventType]; !exists {
		pubsub := rb.client.Subscribe(rb.ctx, subject(eventType))
		rb.channels[eventType] = pubsub

		rb.wg.Add(1)
		go rb.receive(eventType, pubsub)
	}

	return sub
}

func subject(eventType events.EventType) string {
	return "squonk.events." + string(eventType)
}

func (rb *RedisBus) receive(eventType events.EventType, pubsub *redis.PubSub) {
	defer rb.wg.Done()

	ch := pubsub.Channel()
	for {
		select {
		case <-rb.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				rb.logger.Warn().Str("event_type", string(eventType)).Msg("Redis channel closed")
				rb.recordFailure()
				return
			}

			var envelope busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				rb.logger.Error().Err(err).Msg("failed to unmarshal Redis event")
				continue
			}
			// Skip our own messages; local subscribers already saw them.
			if envelope.NodeID == rb.nodeID {
				continue
			}

			rb.mu.RLock()
			subs := rb.subs[eventType]
			rb.mu.RUnlock()

			for _, sub := range subs {
				select {
				case sub <- envelope.Payload:
				default:
					rb.logger.Warn().Str("event_type", string(eventType)).Msg("subscriber channel full, dropping event")
				}
			}
		}
	}
}

// Publish delivers locally and fans out over Redis.
func (rb *RedisBus) Publish(eventType events.EventType, payload events.Payload) {
	rb.local.Publish(eventType, payload)

	rb.mu.RLock()
	degraded := rb.degraded
	rb.mu.RUnlock()
	if degraded {
		return
	}

	data, err := json.Marshal(busMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now(),
		NodeID:    rb.nodeID,
	})
	if err != nil {
		rb.logger.Error().Err(err).Msg("failed to marshal Redis event")
		return
	}

	ctx, cancel := context.WithTimeout(rb.ctx, 2*time.Second)
	defer cancel()

	if err := rb.client.Publish(ctx, subject(eventType), data).Err(); err != nil {
		rb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to Redis")
		rb.recordFailure()
		return
	}

	rb.mu.Lock()
	rb.failCount = 0
	rb.mu.Unlock()
}

// Unsubscribe removes a subscriber.
func (rb *RedisBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.degraded {
		rb.local.Unsubscribe(eventType, sub)
		return
	}

	// Not closed: the receive loop may still hold a copied reference and send.
	subs := rb.subs[eventType]
	for i, s := range subs {
		if s == sub {
			rb.subs[eventType] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(rb.subs[eventType]) == 0 {
		if pubsub, exists := rb.channels[eventType]; exists {
			pubsub.Close()
			delete(rb.channels, eventType)
		}
	}
}

// Close closes the Redis connection and all subscriptions.
func (rb *RedisBus) Close() error {
	if rb.cancel != nil {
		rb.cancel()
	}
	rb.wg.Wait()

	rb.mu.Lock()
	for _, pubsub := range rb.channels {
		pubsub.Close()
	}
	rb.channels = make(map[events.EventType]*redis.PubSub)
	rb.mu.Unlock()

	if rb.client != nil {
		return rb.client.Close()
	}
	return nil
}

// recordFailure trips the breaker once the failure threshold is reached.
func (rb *RedisBus) recordFailure() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.failCount++
	if rb.failCount >= rb.maxFails && !rb.degraded {
		rb.logger.Warn().
			Int("fail_count", rb.failCount).
			Msg("Redis failure threshold reached, switching to in-memory fallback")
		rb.degraded = true
		rb.lastCheck = time.Now()
		if rb.client != nil {
			rb.client.Close()
		}
	}
}

// busMessage is the wire envelope for broker-published events.
type busMessage struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
}
