// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballot implements the "one entry per voter per scope" primitive
shared by council elections and forum votes.

# Box

A Box pairs a Ledger, which holds at most one entry per (scope, voter),
with a Counter, which keeps a denormalized tally on the voted-for record:

	box := ballot.NewBox[RoleScope, string](db, ledger, counter, ballot.Immutable)
	out, err := box.Cast(ctx, scope, voterID, candidateID)

The ledger write and the tally shift happen on one transaction, so the
tally cannot drift from the ledger when a request dies halfway. Cast opens
that transaction itself; CastTx joins one the caller already holds, which
is how the election and forum services use it.

# Policies

  - Immutable: a second cast in the same scope fails with ErrAlreadyCast.
    Used for election ballots.
  - Switchable: repeating the same direction is a no-op, a different
    direction replaces the entry and shifts the tally by the difference.
    Used for forum up/down votes.

# Races

Lookup-then-insert is not atomic on its own. The ledger table must carry
a unique constraint on (scope, voter); a violation on insert or commit is
reported as ErrAlreadyCast, the same result the lookup would have given.

Lookup-then-replace has the same gap under READ COMMITTED: two flips that
both read the old direction would both shift the tally. Replace therefore
matches the entry only while it still holds the direction Lookup saw, and
a miss is reported as ErrConflict before the counter moves.
*/
package ballot
