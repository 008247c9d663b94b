/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus bridges the in-process event bus to external brokers so
// multiple instances can share activation and playback events.
package eventbus

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/config"
	"github.com/squonklabs/squonk_radio/internal/events"
)

// Bus is the distributed event bus surface.
type Bus interface {
	Subscribe(eventType events.EventType) events.Subscriber
	Publish(eventType events.EventType, payload events.Payload)
	Unsubscribe(eventType events.EventType, sub events.Subscriber)
	Close() error
}

// resolveNodeID guarantees a per-instance identity for broker envelope echo
// suppression. Two nodes sharing an empty id would treat each other's events
// as their own and drop them.
func resolveNodeID(instanceID string) string {
	if instanceID != "" {
		return instanceID
	}
	return uuid.NewString()
}

// New builds the bus for the configured backend.
func New(cfg *config.Config, logger zerolog.Logger) (Bus, error) {
	switch cfg.BusBackendName {
	case config.BusMemory:
		return NewMemoryBus(), nil
	case config.BusRedis:
		redisCfg := DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB
		return NewRedisBus(redisCfg, cfg.InstanceID, logger)
	case config.BusNATS:
		natsCfg := DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		return NewNATSBus(natsCfg, cfg.InstanceID, logger)
	default:
		return nil, fmt.Errorf("unknown bus backend: %s", cfg.BusBackendName)
	}
}

// MemoryBus wraps the in-process bus behind the Bus surface.
type MemoryBus struct {
	inner *events.Bus
}

// NewMemoryBus creates a single-node bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{inner: events.NewBus()}
}

func (m *MemoryBus) Subscribe(eventType events.EventType) events.Subscriber {
	return m.inner.Subscribe(eventType)
}

func (m *MemoryBus) Publish(eventType events.EventType, payload events.Payload) {
	m.inner.Publish(eventType, payload)
}

func (m *MemoryBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	m.inner.Unsubscribe(eventType, sub)
}

func (m *MemoryBus) Close() error {
	return nil
}
