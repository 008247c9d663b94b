/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/squonklabs/squonk_radio/internal/events"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	sub := bus.Subscribe(events.EventTrackPlayed)
	bus.Publish(events.EventTrackPlayed, events.Payload{"tenant_id": int64(5)})

	select {
	case payload := <-sub:
		if payload["tenant_id"] != int64(5) {
			t.Errorf("payload = %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	sub := bus.Subscribe(events.EventTenantActivated)
	bus.Unsubscribe(events.EventTenantActivated, sub)

	// Publishing after unsubscribe must not panic or block.
	bus.Publish(events.EventTenantActivated, events.Payload{"tenant_id": int64(1)})
}

func TestSubject(t *testing.T) {
	if got := subject(events.EventTrackPlayed); got != "squonk.events.track.played" {
		t.Errorf("subject = %q", got)
	}
}

func TestResolveNodeIDDefaultsToUniqueID(t *testing.T) {
	a := resolveNodeID("")
	b := resolveNodeID("")
	if a == "" || b == "" {
		t.Fatal("empty node id resolved to empty")
	}
	if a == b {
		t.Errorf("two unnamed nodes share id %q", a)
	}

	if got := resolveNodeID("node-7"); got != "node-7" {
		t.Errorf("explicit id rewritten to %q", got)
	}
}

// Echo suppression must only drop a node's own envelopes, never a peer's.
func TestDispatchSuppressesOwnEnvelopesOnly(t *testing.T) {
	makeBus := func() *NATSBus {
		return &NATSBus{
			local:    events.NewBus(),
			nodeID:   resolveNodeID(""),
			subs:     make(map[events.EventType][]events.Subscriber),
			natsSubs: nil,
		}
	}
	nodeA := makeBus()
	nodeB := makeBus()

	sub := make(events.Subscriber, 1)
	nodeB.subs[events.EventLibraryUpdated] = append(nodeB.subs[events.EventLibraryUpdated], sub)

	fromA, err := json.Marshal(busMessage{
		EventType: events.EventLibraryUpdated,
		Payload:   events.Payload{"tenant_id": float64(42)},
		Timestamp: time.Now(),
		NodeID:    nodeA.nodeID,
	})
	if err != nil {
		t.Fatal(err)
	}

	nodeB.dispatch(events.EventLibraryUpdated, fromA)
	select {
	case payload := <-sub:
		if payload["tenant_id"] != float64(42) {
			t.Errorf("payload = %v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("peer envelope was suppressed")
	}

	fromB, err := json.Marshal(busMessage{
		EventType: events.EventLibraryUpdated,
		Payload:   events.Payload{"tenant_id": float64(43)},
		Timestamp: time.Now(),
		NodeID:    nodeB.nodeID,
	})
	if err != nil {
		t.Fatal(err)
	}

	nodeB.dispatch(events.EventLibraryUpdated, fromB)
	select {
	case payload := <-sub:
		t.Errorf("own envelope echoed back: %v", payload)
	default:
	}
}
