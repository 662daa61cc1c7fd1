// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/ballot"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/directory"
	"github.com/danielhkuo/campus-vote/models"
)

// Phase is the votability of an election at a given instant.
type Phase int

const (
	// PhaseOpen: status active and the end time has not passed
	PhaseOpen Phase = iota
	// PhaseExpired: status still active but the end time has passed.
	// Status only flips on an explicit stop.
	PhaseExpired
	// PhaseEnded: stopped by an administrator
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseExpired:
		return "expired"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

// PhaseOf is the single votability predicate. Every mutating operation
// decides from it instead of reading Status directly.
func PhaseOf(e models.Election, now time.Time) Phase {
	if e.Status != models.StatusActive {
		return PhaseEnded
	}
	if !now.Before(e.EndTime) {
		return PhaseExpired
	}
	return PhaseOpen
}

// Service runs election lifecycle, nomination and vote casting for all
// institutes.
type Service struct {
	db  *sql.DB
	dir directory.Directory
	box *ballot.Box[RoleScope, string]
	now func() time.Time
}

func NewService(conn *sql.DB, dir directory.Directory) *Service {
	s := &Service{db: conn, dir: dir, now: time.Now}
	ledger := &ballotLedger{now: s.clock}
	s.box = ballot.NewBox[RoleScope, string](conn, ledger, voteCounter{}, ballot.Immutable)
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// State is what a caller sees of their institute's election
type State struct {
	Election   *models.Election
	Candidates []models.Candidate
	VotedRoles []string
}

// Start ends any active election of the admin's institute and opens a new
// one, in one transaction. Two concurrent starts are arbitrated by the
// one-active-per-institute unique index; the loser gets ErrStartConflict.
func (s *Service) Start(ctx context.Context, admin auth.Identity, req models.StartElectionRequest) (models.Election, error) {
	if !admin.HasRole(auth.RoleAdmin) {
		return models.Election{}, ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	switch {
	case title == "":
		return models.Election{}, fmt.Errorf("%w: title is required", ErrInvalidElection)
	case req.StartTime.IsZero():
		return models.Election{}, fmt.Errorf("%w: startTime is required", ErrInvalidElection)
	case req.EndTime.IsZero():
		return models.Election{}, fmt.Errorf("%w: endTime is required", ErrInvalidElection)
	case !req.EndTime.After(req.StartTime):
		return models.Election{}, fmt.Errorf("%w: endTime must be after startTime", ErrInvalidElection)
	}

	now := s.clock()
	e := models.Election{
		ID:          auth.GenerateID(),
		Institute:   admin.Institute,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      models.StatusActive,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		CreatedAt:   now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE election SET status = $1, ended_at = $2
		WHERE institute = $3 AND status = $4
	`, models.StatusEnded, now, admin.Institute, models.StatusActive)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to end active elections: %w", err)
	}
	ended, _ := res.RowsAffected()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO election (id, institute, title, description, status, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.Institute, e.Title, e.Description, e.Status, e.StartTime, e.EndTime, e.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.Election{}, ErrStartConflict
		}
		return models.Election{}, fmt.Errorf("failed to insert election: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Election{}, ErrStartConflict
		}
		return models.Election{}, fmt.Errorf("failed to commit election: %w", err)
	}

	slog.Info("election started", "election_id", e.ID, "institute", e.Institute, "ended_previous", ended)
	return e, nil
}

// Stop ends the active election of the admin's institute.
func (s *Service) Stop(ctx context.Context, admin auth.Identity) (models.Election, error) {
	if !admin.HasRole(auth.RoleAdmin) {
		return models.Election{}, ErrForbidden
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	e, err := activeElection(ctx, tx, admin.Institute)
	if err == sql.ErrNoRows {
		return models.Election{}, ErrNoActiveElection
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query active election: %w", err)
	}

	now := s.clock()
	res, err := tx.ExecContext(ctx, `
		UPDATE election SET status = $1, ended_at = $2
		WHERE id = $3 AND status = $4
	`, models.StatusEnded, now, e.ID, models.StatusActive)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to stop election: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Stopped by a concurrent request
		return models.Election{}, ErrNoActiveElection
	}

	if err := tx.Commit(); err != nil {
		return models.Election{}, fmt.Errorf("failed to commit election stop: %w", err)
	}

	e.Status = models.StatusEnded
	e.EndedAt = &now

	slog.Info("election stopped", "election_id", e.ID, "institute", e.Institute)
	return e, nil
}

// Current returns the active election, else the most recently created one
// (so the last results stay visible), else an empty state.
func (s *Service) Current(ctx context.Context, caller auth.Identity) (State, error) {
	state := State{Candidates: []models.Candidate{}, VotedRoles: []string{}}

	e, err := activeElection(ctx, s.db, caller.Institute)
	if err == sql.ErrNoRows {
		e, err = latestElection(ctx, s.db, caller.Institute)
	}
	if err == sql.ErrNoRows {
		return state, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to query election: %w", err)
	}
	state.Election = &e

	if state.Candidates, err = listCandidates(ctx, s.db, e.ID); err != nil {
		return State{}, err
	}
	if state.VotedRoles, err = votedRoles(ctx, s.db, e.ID, caller.UserID); err != nil {
		return State{}, err
	}

	return state, nil
}

// History lists every election of the caller's institute, newest first.
func (s *Service) History(ctx context.Context, caller auth.Identity) ([]models.Election, error) {
	return listElections(ctx, s.db, caller.Institute)
}
