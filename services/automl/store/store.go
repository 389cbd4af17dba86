// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store holds live pipeline sessions in memory. Each session
// carries its own lock, so two requests on the same session serialize
// while requests on different sessions run in parallel.
package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
)

// Config controls optional expiry and capacity enforcement.
//
// # Description
//
// Both limits default to off (zero values). TTL expiry removes sessions
// whose last touch is older than TTL at janitor sweep time. Capacity
// eviction removes the least recently touched sessions once the count
// exceeds MaxSessions.
//
// # Fields
//
//   - TTL: Maximum idle lifetime of a session. 0 disables expiry.
//   - MaxSessions: Upper bound on resident sessions. 0 disables eviction.
//   - SweepInterval: Janitor period. Defaults to 1 minute when a TTL is set.
type Config struct {
	TTL           time.Duration
	MaxSessions   int
	SweepInterval time.Duration
}

type entry struct {
	mu      sync.RWMutex
	record  *datatypes.SessionRecord
	touched time.Time // guarded by mu
}

// Store is a thread-safe in-memory session registry.
//
// # Thread Safety
//
// The outer map is guarded by Store.mu; each session is guarded by its
// own entry lock. View and Mutate hold the per-session lock for the
// duration of the callback, so callbacks must not call back into the
// Store for the same session.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	cfg     Config
	now     func() time.Time // injectable for expiry tests
	stop    chan struct{}
	stopped sync.Once
}

// New creates a Store and, when a TTL is configured, starts its janitor.
func New(cfg Config) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		cfg:     cfg,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cfg.TTL > 0 {
		interval := cfg.SweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		go s.janitor(interval)
	}
	return s
}

// Close stops the janitor. Safe to call more than once.
func (s *Store) Close() {
	s.stopped.Do(func() { close(s.stop) })
}

// Create registers a new session record under its ID. Evicts the least
// recently used sessions first when a capacity limit is configured.
func (s *Store) Create(rec *datatypes.SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[rec.ID] = &entry{record: rec, touched: s.now()}
	if s.cfg.MaxSessions > 0 && len(s.entries) > s.cfg.MaxSessions {
		s.evictLocked(len(s.entries) - s.cfg.MaxSessions)
	}
}

// View runs fn under the session's read lock.
func (s *Store) View(id string, fn func(rec *datatypes.SessionRecord) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.record)
}

// Mutate runs fn under the session's write lock. The record is only
// considered touched (for TTL purposes) by successful mutations.
func (s *Store) Mutate(id string, fn func(rec *datatypes.SessionRecord) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.record); err != nil {
		return err
	}
	e.touched = s.now()
	return nil
}

// Delete removes a session. Returns ErrSessionNotFound when absent.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("%w: %s", datatypes.ErrSessionNotFound, id)
	}
	delete(s.entries, id)
	return nil
}

// Len reports the number of resident sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// List returns summaries of every resident session, newest first.
func (s *Store) List() []datatypes.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]datatypes.SessionSummary, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.RLock()
		out = append(out, e.record.Summary())
		e.mu.RUnlock()
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", datatypes.ErrSessionNotFound, id)
	}
	return e, nil
}

// evictLocked drops the n least recently touched sessions. Caller holds mu.
func (s *Store) evictLocked(n int) {
	type aged struct {
		id      string
		touched time.Time
	}
	all := make([]aged, 0, len(s.entries))
	for id, e := range s.entries {
		e.mu.RLock()
		all = append(all, aged{id, e.touched})
		e.mu.RUnlock()
	}
	sort.Slice(all, func(a, b int) bool { return all[a].touched.Before(all[b].touched) })
	for i := 0; i < n && i < len(all); i++ {
		delete(s.entries, all[i].id)
		slog.Info("session evicted at capacity", "session_id", all[i].id)
	}
}

// janitor periodically removes sessions idle past the TTL.
func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	cutoff := s.now().Add(-s.cfg.TTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.mu.RLock()
		expired := e.touched.Before(cutoff)
		e.mu.RUnlock()
		if expired {
			delete(s.entries, id)
			slog.Info("session expired", "session_id", id)
		}
	}
}
