// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/campus-vote/db"
)

// ErrAlreadyCast is returned when the voter already holds an entry in the
// scope and the policy does not allow it to change.
var ErrAlreadyCast = errors.New("ballot already cast in this scope")

// ErrConflict is returned when the entry changed between Lookup and
// Replace. Nothing was written; the caller may retry on a new transaction.
var ErrConflict = errors.New("ballot changed concurrently")

// Policy decides what happens when a voter casts into a scope they
// already hold an entry in.
type Policy int

const (
	// Immutable rejects any second cast with ErrAlreadyCast.
	Immutable Policy = iota
	// Switchable accepts a different direction and ignores a repeat.
	Switchable
)

// Transition describes what a cast did to the voter's entry.
type Transition int

const (
	Created Transition = iota
	Unchanged
	Changed
)

func (t Transition) String() string {
	switch t {
	case Created:
		return "created"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	}
	return "unknown"
}

// Ledger stores at most one entry per (scope, voter).
// Implementations run every statement on the given transaction.
type Ledger[S any, D comparable] interface {
	// Lookup returns the voter's current direction in the scope, if any.
	Lookup(ctx context.Context, tx *sql.Tx, scope S, voter string) (D, bool, error)
	// Insert records a new entry. A uniqueness violation must be returned
	// as is so the box can translate it.
	Insert(ctx context.Context, tx *sql.Tx, scope S, voter string, d D) error
	// Replace moves an existing entry from direction from to direction to.
	// It must only match the entry while it still holds from, and reports
	// false when nothing matched.
	Replace(ctx context.Context, tx *sql.Tx, scope S, voter string, from, to D) (bool, error)
}

// Counter keeps the denormalized tally in step with the ledger.
type Counter[S any, D comparable] interface {
	// Shift retracts from (when non-nil) and applies to.
	Shift(ctx context.Context, tx *sql.Tx, scope S, from *D, to D) error
}

// Outcome is the result of a cast.
type Outcome[D comparable] struct {
	Transition Transition
	Previous   D // zero value when Transition is Created
	Current    D
}

// Box enforces one entry per (scope, voter) and writes the ledger entry
// and the tally in the same transaction.
type Box[S any, D comparable] struct {
	conn    *sql.DB
	ledger  Ledger[S, D]
	counter Counter[S, D]
	policy  Policy
}

func NewBox[S any, D comparable](conn *sql.DB, ledger Ledger[S, D], counter Counter[S, D], policy Policy) *Box[S, D] {
	return &Box[S, D]{conn: conn, ledger: ledger, counter: counter, policy: policy}
}

// Cast records direction d for voter in scope inside its own transaction.
// Callers that validate inside a transaction of their own use CastTx.
func (b *Box[S, D]) Cast(ctx context.Context, scope S, voter string, d D) (Outcome[D], error) {
	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return Outcome[D]{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	out, err := b.CastTx(ctx, tx, scope, voter, d)
	if err != nil {
		return Outcome[D]{}, err
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return Outcome[D]{}, ErrAlreadyCast
		}
		return Outcome[D]{}, fmt.Errorf("failed to commit ballot: %w", err)
	}

	return out, nil
}

// CastTx is Cast on a transaction owned by the caller, so the caller's
// own validation reads see the same snapshot as the write.
func (b *Box[S, D]) CastTx(ctx context.Context, tx *sql.Tx, scope S, voter string, d D) (Outcome[D], error) {
	prev, found, err := b.ledger.Lookup(ctx, tx, scope, voter)
	if err != nil {
		return Outcome[D]{}, fmt.Errorf("failed to look up ballot: %w", err)
	}

	if !found {
		if err := b.ledger.Insert(ctx, tx, scope, voter, d); err != nil {
			// Lost the race against a concurrent cast that passed Lookup too
			if db.IsUniqueViolation(err) {
				return Outcome[D]{}, ErrAlreadyCast
			}
			return Outcome[D]{}, fmt.Errorf("failed to insert ballot: %w", err)
		}
		if err := b.counter.Shift(ctx, tx, scope, nil, d); err != nil {
			return Outcome[D]{}, fmt.Errorf("failed to update tally: %w", err)
		}
		return Outcome[D]{Transition: Created, Current: d}, nil
	}

	if b.policy == Immutable {
		return Outcome[D]{}, ErrAlreadyCast
	}

	if prev == d {
		return Outcome[D]{Transition: Unchanged, Previous: prev, Current: d}, nil
	}

	replaced, err := b.ledger.Replace(ctx, tx, scope, voter, prev, d)
	if err != nil {
		return Outcome[D]{}, fmt.Errorf("failed to replace ballot: %w", err)
	}
	// A concurrent cast moved the entry after Lookup; shifting by prev
	// would count the flip twice.
	if !replaced {
		return Outcome[D]{}, ErrConflict
	}
	if err := b.counter.Shift(ctx, tx, scope, &prev, d); err != nil {
		return Outcome[D]{}, fmt.Errorf("failed to update tally: %w", err)
	}

	return Outcome[D]{Transition: Changed, Previous: prev, Current: d}, nil
}
