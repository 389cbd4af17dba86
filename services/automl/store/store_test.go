// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
)

func newRecord(id string, created time.Time) *datatypes.SessionRecord {
	return &datatypes.SessionRecord{ID: id, Filename: id + ".csv", CreatedAt: created}
}

func TestStore_CreateViewMutate(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.Create(newRecord("s1", time.Now()))
	require.Equal(t, 1, s.Len())

	err := s.Mutate("s1", func(rec *datatypes.SessionRecord) error {
		rec.TargetColumn = "label"
		return nil
	})
	require.NoError(t, err)

	err = s.View("s1", func(rec *datatypes.SessionRecord) error {
		assert.Equal(t, "label", rec.TargetColumn)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_MissingSession(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	err := s.View("nope", func(*datatypes.SessionRecord) error { return nil })
	assert.True(t, errors.Is(err, datatypes.ErrSessionNotFound))

	err = s.Mutate("nope", func(*datatypes.SessionRecord) error { return nil })
	assert.True(t, errors.Is(err, datatypes.ErrSessionNotFound))

	assert.True(t, errors.Is(s.Delete("nope"), datatypes.ErrSessionNotFound))
}

func TestStore_MutateErrorPropagates(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	s.Create(newRecord("s1", time.Now()))

	boom := errors.New("boom")
	err := s.Mutate("s1", func(*datatypes.SessionRecord) error { return boom })
	assert.True(t, errors.Is(err, boom))
}

func TestStore_Delete(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	s.Create(newRecord("s1", time.Now()))

	require.NoError(t, s.Delete("s1"))
	assert.Equal(t, 0, s.Len())
}

func TestStore_CapacityEvictsLeastRecent(t *testing.T) {
	s := New(Config{MaxSessions: 2})
	defer s.Close()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	s.Create(newRecord("old", clock))
	s.Create(newRecord("mid", clock))
	// touching "old" makes "mid" the eviction candidate
	require.NoError(t, s.Mutate("old", func(*datatypes.SessionRecord) error { return nil }))
	s.Create(newRecord("new", clock))

	assert.Equal(t, 2, s.Len())
	err := s.View("mid", func(*datatypes.SessionRecord) error { return nil })
	assert.True(t, errors.Is(err, datatypes.ErrSessionNotFound))
	assert.NoError(t, s.View("old", func(*datatypes.SessionRecord) error { return nil }))
	assert.NoError(t, s.View("new", func(*datatypes.SessionRecord) error { return nil }))
}

func TestStore_SweepExpiresIdleSessions(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	s.cfg.TTL = time.Hour

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }

	s.Create(newRecord("idle", base))
	s.Create(newRecord("active", base))

	current = base.Add(50 * time.Minute)
	require.NoError(t, s.Mutate("active", func(*datatypes.SessionRecord) error { return nil }))

	current = base.Add(70 * time.Minute)
	s.sweep()

	assert.Equal(t, 1, s.Len())
	assert.True(t, errors.Is(
		s.View("idle", func(*datatypes.SessionRecord) error { return nil }),
		datatypes.ErrSessionNotFound))
	assert.NoError(t, s.View("active", func(*datatypes.SessionRecord) error { return nil }))
}

func TestStore_FailedMutationDoesNotRefreshTTL(t *testing.T) {
	s := New(Config{})
	defer s.Close()
	s.cfg.TTL = time.Hour

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }
	s.Create(newRecord("s1", base))

	current = base.Add(55 * time.Minute)
	_ = s.Mutate("s1", func(*datatypes.SessionRecord) error { return errors.New("rejected") })

	current = base.Add(65 * time.Minute)
	s.sweep()
	assert.Equal(t, 0, s.Len(), "failed mutation must not reset the idle clock")
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.Create(newRecord(fmt.Sprintf("s%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	summaries := s.List()
	require.Len(t, summaries, 3)
	assert.Equal(t, "s2", summaries[0].SessionID)
	assert.Equal(t, "s0", summaries[2].SessionID)
}

func TestStore_ConcurrentMutateAndSweep(t *testing.T) {
	s := New(Config{TTL: time.Hour})
	defer s.Close()

	for i := 0; i < 8; i++ {
		s.Create(newRecord(fmt.Sprintf("s%d", i), time.Now()))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("s%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Mutate(id, func(rec *datatypes.SessionRecord) error {
					rec.TargetColumn = "label"
					return nil
				})
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			s.sweep()
		}
	}()
	wg.Wait()

	assert.Equal(t, 8, s.Len())
}
