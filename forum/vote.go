// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package forum

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

var (
	ErrForbidden        = errors.New("forbidden")
	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidDirection = errors.New("direction must be up or down")
	ErrInvalidPost      = errors.New("invalid post")
	ErrVoteConflict     = errors.New("vote changed concurrently, retry")
)

// Kind is the type of a votable item
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
)

// table maps each kind to the table holding its tally
var table = map[Kind]string{
	KindQuestion: "question",
	KindAnswer:   "answer",
}

// Direction is a toggle-vote. There is no neutral direction: a vote can be
// flipped but not retracted.
type Direction string

const (
	Up   Direction = models.VoteUp
	Down Direction = models.VoteDown
)

// Weight is the direction's contribution to the item's tally
func (d Direction) Weight() int {
	switch d {
	case Up:
		return 1
	case Down:
		return -1
	}
	return 0
}

func (d Direction) Valid() bool {
	return d == Up || d == Down
}

// ItemRef identifies one votable item, the scope of a toggle-vote
type ItemRef struct {
	Kind Kind
	ID   string
}

// Vote is an item's tally together with the caller's own direction
type Vote struct {
	Votes    int
	UserVote Direction
}

type itemLedger struct {
	now func() time.Time
}

func (l *itemLedger) Lookup(ctx context.Context, tx *sql.Tx, ref ItemRef, voter string) (Direction, bool, error) {
	var d string
	err := tx.QueryRowContext(ctx, `
		SELECT direction FROM item_vote
		WHERE item_kind = $1 AND item_id = $2 AND voter_id = $3
	`, string(ref.Kind), ref.ID, voter).Scan(&d)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return Direction(d), true, nil
}

func (l *itemLedger) Insert(ctx context.Context, tx *sql.Tx, ref ItemRef, voter string, d Direction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO item_vote (item_kind, item_id, voter_id, direction, voted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, string(ref.Kind), ref.ID, voter, string(d), l.now())
	return err
}

func (l *itemLedger) Replace(ctx context.Context, tx *sql.Tx, ref ItemRef, voter string, from, to Direction) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE item_vote SET direction = $1, voted_at = $2
		WHERE item_kind = $3 AND item_id = $4 AND voter_id = $5 AND direction = $6
	`, string(to), l.now(), string(ref.Kind), ref.ID, voter, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// tallyCounter moves the votes column by the weight difference, so a flip
// shifts it by two in one statement.
type tallyCounter struct{}

func (tallyCounter) Shift(ctx context.Context, tx *sql.Tx, ref ItemRef, from *Direction, to Direction) error {
	delta := to.Weight()
	if from != nil {
		delta -= from.Weight()
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE `+table[ref.Kind]+` SET votes = votes + $1 WHERE id = $2`, delta, ref.ID)
	return err
}

// Service runs forum posting and toggle-voting.
type Service struct {
	db  *sql.DB
	box *ballot.Box[ItemRef, Direction]
	now func() time.Time
}

func NewService(conn *sql.DB) *Service {
	s := &Service{db: conn, now: time.Now}
	s.box = ballot.NewBox[ItemRef, Direction](conn, &itemLedger{now: s.clock}, tallyCounter{}, ballot.Switchable)
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// eligible reports whether the caller may post and vote on the forum
func eligible(caller auth.Identity) bool {
	return !caller.IsZero() && caller.HasRole(auth.RoleStudent, auth.RoleProfessor)
}

// maxVoteAttempts bounds how often SetVote restarts after losing a race
// against the same caller's concurrent vote on the same item.
const maxVoteAttempts = 3

// SetVote records the caller's direction on an item and returns the new
// tally. Repeating the current direction changes nothing.
func (s *Service) SetVote(ctx context.Context, caller auth.Identity, ref ItemRef, d Direction) (Vote, error) {
	if !eligible(caller) {
		return Vote{}, ErrForbidden
	}
	if !d.Valid() {
		return Vote{}, ErrInvalidDirection
	}
	if _, ok := table[ref.Kind]; !ok || ref.ID == "" {
		return Vote{}, ErrItemNotFound
	}

	for attempt := 1; ; attempt++ {
		v, out, err := s.setVote(ctx, caller, ref, d)
		if errors.Is(err, ErrVoteConflict) && attempt < maxVoteAttempts {
			// The retry's lookup sees the committed entry
			continue
		}
		if err != nil {
			return Vote{}, err
		}

		if out.Transition != ballot.Unchanged {
			slog.Info("forum vote", "kind", ref.Kind, "item_id", ref.ID, "transition", out.Transition, "direction", d)
		}
		return v, nil
	}
}

func (s *Service) setVote(ctx context.Context, caller auth.Identity, ref ItemRef, d Direction) (Vote, ballot.Outcome[Direction], error) {
	var none ballot.Outcome[Direction]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Vote{}, none, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := itemVotes(ctx, tx, ref, caller.Institute); err != nil {
		return Vote{}, none, err
	}

	out, err := s.box.CastTx(ctx, tx, ref, caller.UserID, d)
	if errors.Is(err, ballot.ErrAlreadyCast) || errors.Is(err, ballot.ErrConflict) {
		return Vote{}, none, ErrVoteConflict
	}
	if err != nil {
		return Vote{}, none, err
	}

	votes, err := itemVotes(ctx, tx, ref, caller.Institute)
	if err != nil {
		return Vote{}, none, err
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return Vote{}, none, ErrVoteConflict
		}
		return Vote{}, none, fmt.Errorf("failed to commit vote: %w", err)
	}

	return Vote{Votes: votes, UserVote: out.Current}, out, nil
}

// itemVotes reads an item's tally, scoped to the institute that owns it.
// Answers belong to their question's institute.
func itemVotes(ctx context.Context, q querier, ref ItemRef, institute string) (int, error) {
	var query string
	switch ref.Kind {
	case KindQuestion:
		query = `SELECT votes FROM question WHERE id = $1 AND institute = $2`
	case KindAnswer:
		query = `
			SELECT a.votes FROM answer a
			JOIN question q ON q.id = a.question_id
			WHERE a.id = $1 AND q.institute = $2
		`
	default:
		return 0, ErrItemNotFound
	}

	var votes int
	err := q.QueryRowContext(ctx, query, ref.ID, institute).Scan(&votes)
	if err == sql.ErrNoRows {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", ref.Kind, err)
	}
	return votes, nil
}
