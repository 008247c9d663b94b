/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/squonklabs/squonk_radio/internal/events"
)

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	Token         string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NATSBus fans events out over NATS core pub/sub. An unreachable server at
// startup yields a degraded bus backed by the in-memory implementation.
type NATSBus struct {
	conn   *nats.Conn
	logger zerolog.Logger
	local  *events.Bus
	nodeID string

	mu       sync.Mutex
	subs     map[events.EventType][]events.Subscriber
	natsSubs map[events.EventType]*nats.Subscription

	degraded bool
}

// NewNATSBus creates a NATS-backed bus.
func NewNATSBus(cfg NATSConfig, nodeID string, logger zerolog.Logger) (*NATSBus, error) {
	nodeID = resolveNodeID(nodeID)
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		logger.Warn().Err(err).Str("url", cfg.URL).Msg("NATS connection failed, using in-memory fallback")
		return &NATSBus{
			logger:   logger,
			local:    events.NewBus(),
			nodeID:   nodeID,
			subs:     make(map[events.EventType][]events.Subscriber),
			natsSubs: make(map[events.EventType]*nats.Subscription),
			degraded: true,
		}, nil
	}

	logger.Info().Str("url", cfg.URL).Msg("NATS event bus initialized")

	return &NATSBus{
		conn:     conn,
		logger:   logger,
		local:    events.NewBus(),
		nodeID:   nodeID,
		subs:     make(map[events.EventType][]events.Subscriber),
		natsSubs: make(map[events.EventType]*nats.Subscription),
	}, nil
}

// Subscribe registers a subscriber for an event type.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	if nb.degraded {
		return nb.local.Subscribe(eventType)
	}

	sub := make(events.Subscriber, 100)
	nb.subs[eventType] = append(nb.subs[eventType], sub)

	if _, exists := nb.natsSubs[eventType]; !exists {
		natsSub, err := nb.conn.Subscribe(subject(eventType), func(msg *nats.Msg) {
			nb.dispatch(eventType, msg.Data)
		})
		if err != nil {
			nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to subscribe on NATS")
		} else {
			nb.natsSubs[eventType] = natsSub
		}
	}

	return sub
}

func (nb *NATSBus) dispatch(eventType events.EventType, data []byte) {
	var envelope busMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		nb.logger.Error().Err(err).Msg("failed to unmarshal NATS event")
		return
	}
	if envelope.NodeID == nb.nodeID {
		return
	}

	nb.mu.Lock()
	subs := make([]events.Subscriber, len(nb.subs[eventType]))
	copy(subs, nb.subs[eventType])
	nb.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- envelope.Payload:
		default:
			nb.logger.Warn().Str("event_type", string(eventType)).Msg("subscriber channel full, dropping event")
		}
	}
}

// Publish delivers locally and fans out over NATS.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.local.Publish(eventType, payload)

	nb.mu.Lock()
	degraded := nb.degraded
	nb.mu.Unlock()
	if degraded {
		return
	}

	data, err := json.Marshal(busMessage{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now(),
		NodeID:    nb.nodeID,
	})
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to marshal NATS event")
		return
	}

	if err := nb.conn.Publish(subject(eventType), data); err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to NATS")
	}
}

// Unsubscribe removes a subscriber.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	if nb.degraded {
		nb.local.Unsubscribe(eventType, sub)
		return
	}

	// Not closed: dispatch may still hold a copied reference and send.
	subs := nb.subs[eventType]
	for i, s := range subs {
		if s == sub {
			nb.subs[eventType] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(nb.subs[eventType]) == 0 {
		if natsSub, exists := nb.natsSubs[eventType]; exists {
			natsSub.Unsubscribe()
			delete(nb.natsSubs, eventType)
		}
	}
}

// Close drains and closes the NATS connection.
func (nb *NATSBus) Close() error {
	nb.mu.Lock()
	defer nb.mu.Unlock()

	for _, natsSub := range nb.natsSubs {
		natsSub.Unsubscribe()
	}
	nb.natsSubs = make(map[events.EventType]*nats.Subscription)

	if nb.conn != nil {
		if err := nb.conn.Drain(); err != nil {
			nb.conn.Close()
			return err
		}
	}
	return nil
}
