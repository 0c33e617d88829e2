// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides an in-process tracking.Repository and
// tracking.Transactor. Writes made inside a transaction are staged and only
// become visible when the transaction commits.
package memory

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotrack/internal/tracking"
)

type txKey struct{}

// tx stages writes until commit.
type tx struct {
	pending map[ulid.ULID]*tracking.State
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// Store holds pursuits in memory. It implements both tracking.Repository and
// tracking.Transactor.
type Store struct {
	mu     sync.RWMutex
	states map[ulid.ULID]*tracking.State

	lockMu sync.Mutex
	locks  map[string]*keyLock
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		states: make(map[ulid.ULID]*tracking.State),
		locks:  make(map[string]*keyLock),
	}
}

// Get retrieves a pursuit by ID. The returned state is a copy.
func (s *Store) Get(ctx context.Context, id ulid.ULID) (*tracking.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get tracking").Wrap(err)
	}
	if t := txFromContext(ctx); t != nil {
		if st, ok := t.pending[id]; ok {
			return st.Clone(), nil
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	if !ok {
		return nil, tracking.NotFoundError(id)
	}
	return st.Clone(), nil
}

// Save stores a copy of the pursuit. Inside a transaction the write is staged.
func (s *Store) Save(ctx context.Context, state *tracking.State) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "save tracking").Wrap(err)
	}
	if t := txFromContext(ctx); t != nil {
		t.pending[state.ID] = state.Clone()
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(state.Clone())
}

// GetActiveByTracker returns the tracker's active pursuit.
func (s *Store) GetActiveByTracker(ctx context.Context, trackerID string) (*tracking.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get active tracking").Wrap(err)
	}
	if st := s.findActive(ctx, trackerID); st != nil {
		return st.Clone(), nil
	}
	return nil, oops.Code(tracking.CodeNotFound).With("tracker_id", trackerID).Wrap(tracking.ErrNotFound)
}

// HasActive reports whether the tracker has an active pursuit.
func (s *Store) HasActive(ctx context.Context, trackerID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, oops.With("operation", "has active tracking").Wrap(err)
	}
	return s.findActive(ctx, trackerID) != nil, nil
}

// Len returns the number of stored pursuits.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (s *Store) findActive(ctx context.Context, trackerID string) *tracking.State {
	t := txFromContext(ctx)
	if t != nil {
		for _, st := range t.pending {
			if st.TrackerID == trackerID && st.IsActive() {
				return st
			}
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, st := range s.states {
		if t != nil {
			if _, staged := t.pending[id]; staged {
				continue
			}
		}
		if st.TrackerID == trackerID && st.IsActive() {
			return st
		}
	}
	return nil
}

// put stores state, enforcing one active pursuit per tracker. Caller holds mu.
func (s *Store) put(state *tracking.State) error {
	if state.IsActive() {
		for id, existing := range s.states {
			if id != state.ID && existing.TrackerID == state.TrackerID && existing.IsActive() {
				return tracking.AlreadyTrackingError(state.TrackerID)
			}
		}
	}
	s.states[state.ID] = state
	return nil
}

// InTransaction runs fn while holding the lock for key. Staged writes are
// applied only if fn returns nil and ctx has not been cancelled. A nested
// call joins the enclosing transaction.
func (s *Store) InTransaction(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	if err := s.lock(ctx, key); err != nil {
		return oops.Code("TX_BEGIN_FAILED").With("key", key).Wrap(err)
	}
	defer s.unlock(key)

	t := &tx{pending: make(map[ulid.ULID]*tracking.State)}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("TX_COMMIT_FAILED").With("key", key).Wrap(err)
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Validate everything before applying so a failed commit leaves no partial writes.
	for _, st := range t.pending {
		if !st.IsActive() {
			continue
		}
		for id, existing := range s.states {
			if id != st.ID && existing.TrackerID == st.TrackerID && existing.IsActive() {
				if _, replaced := t.pending[id]; replaced && !t.pending[id].IsActive() {
					continue
				}
				return tracking.AlreadyTrackingError(st.TrackerID)
			}
		}
	}
	for id, st := range t.pending {
		s.states[id] = st
	}
	return nil
}

func (s *Store) lock(ctx context.Context, key string) error {
	s.lockMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	s.lockMu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		s.release(key, l)
		return ctx.Err()
	}
}

func (s *Store) unlock(key string) {
	s.lockMu.Lock()
	l := s.locks[key]
	s.lockMu.Unlock()
	<-l.ch
	s.release(key, l)
}

func (s *Store) release(key string, l *keyLock) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

func txFromContext(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}
