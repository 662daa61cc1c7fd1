// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/ballot"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/models"
)

// RoleScope is the uniqueness scope of an election ballot: one contestable
// role within one election.
type RoleScope struct {
	ElectionID string
	Role       string
}

// ballotLedger stores election ballots. The direction is the candidate id.
type ballotLedger struct {
	now func() time.Time
}

// Lookup searches the whole role cohort, not just the stored role column,
// so a ballot for any candidate contesting the role counts.
func (l *ballotLedger) Lookup(ctx context.Context, tx *sql.Tx, scope RoleScope, voter string) (string, bool, error) {
	var candidateID string
	err := tx.QueryRowContext(ctx, `
		SELECT candidate_id FROM ballot
		WHERE election_id = $1 AND voter_id = $2
		  AND candidate_id IN (
			SELECT id FROM candidate WHERE election_id = $1 AND role = $3
		  )
		LIMIT 1
	`, scope.ElectionID, voter, scope.Role).Scan(&candidateID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return candidateID, true, nil
}

func (l *ballotLedger) Insert(ctx context.Context, tx *sql.Tx, scope RoleScope, voter string, candidateID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ballot (id, election_id, voter_id, candidate_id, role, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, auth.GenerateID(), scope.ElectionID, voter, candidateID, scope.Role, l.now())
	return err
}

// Replace is never reached under the Immutable policy. Election ballots
// cannot be changed.
func (l *ballotLedger) Replace(context.Context, *sql.Tx, RoleScope, string, string, string) (bool, error) {
	return false, ballot.ErrAlreadyCast
}

// voteCounter keeps candidate.vote_count equal to the ballots referencing it
type voteCounter struct{}

func (voteCounter) Shift(ctx context.Context, tx *sql.Tx, scope RoleScope, from *string, to string) error {
	if from != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE candidate SET vote_count = vote_count - 1 WHERE id = $1`, *from); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE candidate SET vote_count = vote_count + 1 WHERE id = $1`, to)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("candidate %s vanished during cast", to)
	}
	return nil
}

// CastVote records the voter's ballot for a candidate of the active
// election. A voter holds one ballot per role and cannot change it.
func (s *Service) CastVote(ctx context.Context, voter auth.Identity, candidateID string) error {
	if !voter.HasRole(auth.RoleStudent) {
		return ErrForbidden
	}
	if candidateID == "" {
		return ErrMissingCandidate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := activeElection(ctx, tx, voter.Institute)
	if err == sql.ErrNoRows {
		return ErrNoActiveElection
	}
	if err != nil {
		return fmt.Errorf("failed to query active election: %w", err)
	}
	if PhaseOf(e, s.clock()) != PhaseOpen {
		return ErrVotingClosed
	}

	c, err := getCandidate(ctx, tx, candidateID)
	if err == sql.ErrNoRows || (err == nil && c.ElectionID != e.ID) {
		return ErrCandidateNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query candidate: %w", err)
	}

	if !models.IsContestableRole(c.Role) {
		return ErrInvalidRole
	}

	scope := RoleScope{ElectionID: e.ID, Role: c.Role}
	if _, err := s.box.CastTx(ctx, tx, scope, voter.UserID, c.ID); err != nil {
		if errors.Is(err, ballot.ErrAlreadyCast) {
			return ErrAlreadyVoted
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAlreadyVoted
		}
		return fmt.Errorf("failed to commit ballot: %w", err)
	}

	slog.Info("ballot cast", "election_id", e.ID, "role", c.Role, "candidate_id", c.ID)
	return nil
}
