// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election runs council elections: lifecycle, candidate registry
and ballot casting.

# Lifecycle

Each institute has at most one active election. Start ends the current
one and opens the next in a single transaction; Stop ends it.

	svc := election.NewService(conn, directory.NewSQLDirectory(conn))
	e, err := svc.Start(ctx, admin, models.StartElectionRequest{...})

Status only changes on Start or Stop. An election whose end time has
passed still reads "active" until stopped, so every mutating call asks
PhaseOf instead:

	PhaseOpen     active, now < endTime     votes and nominations accepted
	PhaseExpired  active, now >= endTime    refused with ErrVotingClosed
	PhaseEnded    stopped                   refused

# Candidates

Admins nominate people found in the directory, by email or ID, for one
of models.ContestableRoles. A person holds one candidacy per election.
Withdraw deletes the candidate together with every ballot cast for them,
which lets those voters vote again for the role.

# Ballots

A student holds one ballot per role per election and cannot change it.
CastVote runs on a ballot.Box with the Immutable policy keyed by
RoleScope, so the ballot row and the candidate's vote_count are written
in the same transaction. The UNIQUE (election_id, voter_id, role)
constraint settles concurrent casts: the loser gets ErrAlreadyVoted.

# Results

Results counts ballots from the ledger and flags candidates whose stored
vote_count disagrees. Reconcile rewrites vote_count from the ledger.
*/
package election
