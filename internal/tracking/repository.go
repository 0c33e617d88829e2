// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package tracking

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// Repository persists pursuits.
type Repository interface {
	// Get retrieves a pursuit by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id ulid.ULID) (*State, error)

	// Save inserts or replaces a pursuit. Returns ErrAlreadyTracking if saving
	// would give the tracker a second active pursuit.
	Save(ctx context.Context, state *State) error

	// GetActiveByTracker returns the tracker's active pursuit, or ErrNotFound.
	GetActiveByTracker(ctx context.Context, trackerID string) (*State, error)

	// HasActive reports whether the tracker has an active pursuit.
	HasActive(ctx context.Context, trackerID string) (bool, error)
}

// Transactor runs a unit of work atomically. Calls sharing a key are
// serialized; fn's changes are committed only if it returns nil and ctx is
// still live.
type Transactor interface {
	InTransaction(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
