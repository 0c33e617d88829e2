// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres stores pursuits in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holotrack/internal/tracking"
)

// activeIndex is the partial unique index that allows one active pursuit per tracker.
const activeIndex = "trackings_one_active_per_tracker"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// poolIface is the pool surface the repository and transactor need.
// *pgxpool.Pool and pgxmock.PgxPoolIface satisfy it.
type poolIface interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// Repository implements tracking.Repository. Inside Transactor.InTransaction
// every call runs on the transaction carried by the context.
type Repository struct {
	pool poolIface
}

// NewRepository creates a Repository over pool.
func NewRepository(pool poolIface) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.pool
}

const selectColumns = `SELECT id, tracker_id, target_description, trail_age, base_dc, phase, status,
	cumulative_dc_modifier, failed_attempts_in_phase, distance_covered, distance_to_target_feet,
	contested_dc, concealment_time_multiplier, estimated_target_count, history, terrain_history,
	started_at, last_check_at
	FROM trackings`

// Get retrieves a pursuit by ID.
func (r *Repository) Get(ctx context.Context, id ulid.ULID) (*tracking.State, error) {
	row := r.q(ctx).QueryRow(ctx, selectColumns+` WHERE id = $1`, id.String())
	st, err := scanState(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tracking.NotFoundError(id)
	}
	if err != nil {
		return nil, oops.Code("TRACKING_GET_FAILED").With("tracking_id", id.String()).Wrap(err)
	}
	return st, nil
}

// GetActiveByTracker returns the tracker's active pursuit.
func (r *Repository) GetActiveByTracker(ctx context.Context, trackerID string) (*tracking.State, error) {
	row := r.q(ctx).QueryRow(ctx, selectColumns+` WHERE tracker_id = $1 AND status = 'active'`, trackerID)
	st, err := scanState(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(tracking.CodeNotFound).With("tracker_id", trackerID).Wrap(tracking.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TRACKING_GET_FAILED").With("tracker_id", trackerID).Wrap(err)
	}
	return st, nil
}

// HasActive reports whether the tracker has an active pursuit.
func (r *Repository) HasActive(ctx context.Context, trackerID string) (bool, error) {
	var exists bool
	err := r.q(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM trackings WHERE tracker_id = $1 AND status = 'active')`,
		trackerID).Scan(&exists)
	if err != nil {
		return false, oops.Code("TRACKING_GET_FAILED").With("tracker_id", trackerID).Wrap(err)
	}
	return exists, nil
}

// Save upserts a pursuit. A second active pursuit for the same tracker
// violates the partial unique index and is reported as ErrAlreadyTracking.
func (r *Repository) Save(ctx context.Context, st *tracking.State) error {
	history, err := json.Marshal(nonNil(st.History))
	if err != nil {
		return oops.Code(tracking.CodeSaveFailed).With("tracking_id", st.ID.String()).Wrap(err)
	}
	terrain, err := json.Marshal(nonNil(st.TerrainHistory))
	if err != nil {
		return oops.Code(tracking.CodeSaveFailed).With("tracking_id", st.ID.String()).Wrap(err)
	}

	_, err = r.q(ctx).Exec(ctx, `
		INSERT INTO trackings (id, tracker_id, target_description, trail_age, base_dc, phase, status,
			cumulative_dc_modifier, failed_attempts_in_phase, distance_covered, distance_to_target_feet,
			contested_dc, concealment_time_multiplier, estimated_target_count, history, terrain_history,
			started_at, last_check_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			target_description = EXCLUDED.target_description,
			phase = EXCLUDED.phase,
			status = EXCLUDED.status,
			cumulative_dc_modifier = EXCLUDED.cumulative_dc_modifier,
			failed_attempts_in_phase = EXCLUDED.failed_attempts_in_phase,
			distance_covered = EXCLUDED.distance_covered,
			distance_to_target_feet = EXCLUDED.distance_to_target_feet,
			contested_dc = EXCLUDED.contested_dc,
			concealment_time_multiplier = EXCLUDED.concealment_time_multiplier,
			estimated_target_count = EXCLUDED.estimated_target_count,
			history = EXCLUDED.history,
			terrain_history = EXCLUDED.terrain_history,
			last_check_at = EXCLUDED.last_check_at`,
		st.ID.String(), st.TrackerID, st.TargetDescription, int(st.TrailAge), st.BaseDC,
		string(st.Phase), string(st.Status), st.CumulativeDCModifier, st.FailedAttemptsInPhase,
		st.DistanceCovered, st.DistanceToTargetFeet, st.ContestedDC, st.ConcealmentTimeMultiplier,
		st.EstimatedTargetCount, history, terrain, st.StartedAt.UTC(), st.LastCheckAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == activeIndex {
			return tracking.AlreadyTrackingError(st.TrackerID)
		}
		return oops.Code(tracking.CodeSaveFailed).With("tracking_id", st.ID.String()).Wrap(err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanState(row pgx.Row) (*tracking.State, error) {
	var (
		id, phase, status      string
		trailAge               int
		history, terrain       []byte
		startedAt, lastCheckAt time.Time
		st                     tracking.State
	)
	err := row.Scan(&id, &st.TrackerID, &st.TargetDescription, &trailAge, &st.BaseDC, &phase, &status,
		&st.CumulativeDCModifier, &st.FailedAttemptsInPhase, &st.DistanceCovered, &st.DistanceToTargetFeet,
		&st.ContestedDC, &st.ConcealmentTimeMultiplier, &st.EstimatedTargetCount, &history, &terrain,
		&startedAt, &lastCheckAt)
	if err != nil {
		return nil, err
	}

	if st.ID, err = ulid.Parse(id); err != nil {
		return nil, oops.With("operation", "parse tracking id").With("id", id).Wrap(err)
	}
	st.TrailAge = tracking.TrailAge(trailAge)
	st.Phase = tracking.Phase(phase)
	st.Status = tracking.Status(status)
	st.StartedAt = startedAt.UTC()
	st.LastCheckAt = lastCheckAt.UTC()
	if err := json.Unmarshal(history, &st.History); err != nil {
		return nil, oops.With("operation", "decode history").With("id", id).Wrap(err)
	}
	if err := json.Unmarshal(terrain, &st.TerrainHistory); err != nil {
		return nil, oops.With("operation", "decode terrain history").With("id", id).Wrap(err)
	}
	if len(st.History) == 0 {
		st.History = nil
	}
	if len(st.TerrainHistory) == 0 {
		st.TerrainHistory = nil
	}
	return &st, nil
}
