/*
Copyright (C) 2026 Squonk Labs

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package journal provides an in-memory ring buffer of rotation outcomes,
// served over the ops API for quick diagnosis without log spelunking.
package journal

import (
	"sync"
	"time"
)

// Outcome classifies what happened to a tenant during a rotation cycle.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped" // empty library
	OutcomeFailed    Outcome = "failed"
)

// Entry records one tenant's result within a rotation cycle.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Cycle     uint64    `json:"cycle"`
	TenantID  int64     `json:"tenant_id"`
	Outcome   Outcome   `json:"outcome"`
	TrackID   string    `json:"track_id,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Journal is a thread-safe ring buffer of rotation entries.
type Journal struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	head     int
	count    int
}

// New creates a journal with the specified capacity.
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Journal{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Add records an entry, evicting the oldest once full.
func (j *Journal) Add(entry Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.head] = entry
	j.head = (j.head + 1) % j.capacity
	if j.count < j.capacity {
		j.count++
	}
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything buffered.
func (j *Journal) Recent(limit int) []Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if limit <= 0 || limit > j.count {
		limit = j.count
	}

	result := make([]Entry, limit)
	for i := 0; i < limit; i++ {
		idx := (j.head - 1 - i + j.capacity*2) % j.capacity
		result[i] = j.entries[idx]
	}
	return result
}

// Len returns the number of buffered entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.count
}
