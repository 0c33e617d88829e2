// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// Transactor implements tracking.Transactor. Work sharing a key is serialized
// across processes by a transaction-scoped advisory lock on the key's hash.
type Transactor struct {
	pool poolIface
}

// NewTransactor creates a Transactor backed by pool.
func NewTransactor(pool poolIface) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction begins a transaction, takes the advisory lock for key,
// stores the transaction in the context, and calls fn. The transaction is
// committed only if fn returns nil and ctx is still live. A nested call joins
// the enclosing transaction.
func (t *Transactor) InTransaction(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").With("key", key).Wrap(err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return oops.Code("TX_BEGIN_FAILED").With("key", key).Wrapf(err, "acquire advisory lock")
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("TX_COMMIT_FAILED").With("key", key).Wrap(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").With("key", key).Wrap(err)
	}
	return nil
}
