// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/directory"
	"github.com/danielhkuo/campus-vote/models"
)

// MaxManifestoLength is counted in characters, not bytes
const MaxManifestoLength = 4000

// Nominate registers a person as candidate for a role. A person holds at
// most one candidacy per election, whatever the role.
func (s *Service) Nominate(ctx context.Context, admin auth.Identity, req models.NominateRequest) (models.Candidate, error) {
	if !admin.HasRole(auth.RoleAdmin) {
		return models.Candidate{}, ErrForbidden
	}
	if strings.TrimSpace(req.Person) == "" {
		return models.Candidate{}, fmt.Errorf("%w: person is required", ErrInvalidNomination)
	}

	var e models.Election
	var err error
	if req.ElectionID != "" {
		e, err = getElection(ctx, s.db, req.ElectionID)
		if err == sql.ErrNoRows || (err == nil && e.Institute != admin.Institute) {
			return models.Candidate{}, ErrElectionNotFound
		}
	} else {
		e, err = activeElection(ctx, s.db, admin.Institute)
		if err == sql.ErrNoRows {
			return models.Candidate{}, ErrElectionNotActive
		}
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to query election: %w", err)
	}

	if PhaseOf(e, s.clock()) != PhaseOpen {
		return models.Candidate{}, ErrElectionNotActive
	}

	role := strings.TrimSpace(req.Role)
	if !models.IsContestableRole(role) {
		return models.Candidate{}, fmt.Errorf("%w: %q", ErrUnknownRole, req.Role)
	}

	person, err := s.dir.Resolve(ctx, req.Person)
	if errors.Is(err, directory.ErrPersonNotFound) || (err == nil && person.Institute != e.Institute) {
		return models.Candidate{}, ErrPersonNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to resolve person: %w", err)
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM candidate WHERE election_id = $1 AND person_id = $2
		)
	`, e.ID, person.ID).Scan(&exists)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to check nomination: %w", err)
	}
	if exists {
		return models.Candidate{}, ErrDuplicateNomination
	}

	c := models.Candidate{
		ID:         auth.GenerateID(),
		ElectionID: e.ID,
		PersonID:   person.ID,
		Role:       role,
		Name:       person.Name,
		Department: person.Department,
		Year:       person.Year,
		PhotoURL:   person.PhotoURL,
		CreatedAt:  s.clock(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidate (id, election_id, person_id, role, name, department, year, photo_url, manifesto, vote_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', 0, $9)
	`, c.ID, c.ElectionID, c.PersonID, c.Role, c.Name, c.Department, c.Year, c.PhotoURL, c.CreatedAt)
	if err != nil {
		// UNIQUE (election_id, person_id) catches a concurrent nomination
		if db.IsUniqueViolation(err) {
			return models.Candidate{}, ErrDuplicateNomination
		}
		return models.Candidate{}, fmt.Errorf("failed to insert candidate: %w", err)
	}

	slog.Info("candidate nominated", "election_id", e.ID, "candidate_id", c.ID, "role", c.Role)
	return c, nil
}

// UpdateManifesto lets a candidate edit their own manifesto while the
// election is open.
func (s *Service) UpdateManifesto(ctx context.Context, caller auth.Identity, candidateID, text string) (string, error) {
	if candidateID == "" {
		return "", ErrMissingCandidate
	}

	manifesto := strings.TrimSpace(text)
	if utf8.RuneCountInString(manifesto) > MaxManifestoLength {
		return "", fmt.Errorf("%w: at most %d characters", ErrManifestoTooLong, MaxManifestoLength)
	}

	c, err := getCandidate(ctx, s.db, candidateID)
	if err == sql.ErrNoRows {
		return "", ErrCandidateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query candidate: %w", err)
	}

	if caller.IsZero() || caller.UserID != c.PersonID {
		return "", ErrForbidden
	}

	e, err := getElection(ctx, s.db, c.ElectionID)
	if err != nil {
		return "", fmt.Errorf("failed to query election: %w", err)
	}
	if PhaseOf(e, s.clock()) != PhaseOpen {
		return "", ErrElectionEnded
	}

	_, err = s.db.ExecContext(ctx, `UPDATE candidate SET manifesto = $1 WHERE id = $2`, manifesto, c.ID)
	if err != nil {
		return "", fmt.Errorf("failed to update manifesto: %w", err)
	}

	slog.Info("manifesto updated", "candidate_id", c.ID)
	return manifesto, nil
}

// Withdraw removes a candidate and every ballot cast for them, in one
// transaction. Deleting the ballots frees each affected voter to vote for
// another candidate of the same role.
func (s *Service) Withdraw(ctx context.Context, admin auth.Identity, candidateID string) ([]models.Candidate, error) {
	if !admin.HasRole(auth.RoleAdmin) {
		return nil, ErrForbidden
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c, err := getCandidate(ctx, tx, candidateID)
	if err == sql.ErrNoRows {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate: %w", err)
	}

	e, err := getElection(ctx, tx, c.ElectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query election: %w", err)
	}
	if e.Institute != admin.Institute {
		return nil, ErrCandidateNotFound
	}
	if PhaseOf(e, s.clock()) != PhaseOpen {
		return nil, ErrElectionEnded
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM ballot WHERE candidate_id = $1`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete ballots: %w", err)
	}
	released, _ := res.RowsAffected()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidate WHERE id = $1`, c.ID); err != nil {
		return nil, fmt.Errorf("failed to delete candidate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal: %w", err)
	}

	slog.Info("candidate withdrawn", "election_id", e.ID, "candidate_id", c.ID, "ballots_released", released)

	return listCandidates(ctx, s.db, e.ID)
}
