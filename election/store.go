// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/campus-vote/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const electionColumns = `id, institute, title, description, status, start_time, end_time, created_at, ended_at`

const candidateColumns = `id, election_id, person_id, role, name, department, year, photo_url, manifesto, vote_count, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanElection(row scanner) (models.Election, error) {
	var e models.Election
	var endedAt sql.NullTime
	err := row.Scan(&e.ID, &e.Institute, &e.Title, &e.Description, &e.Status,
		&e.StartTime, &e.EndTime, &e.CreatedAt, &endedAt)
	if err != nil {
		return models.Election{}, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		e.EndedAt = &t
	}
	return e, nil
}

func scanCandidate(row scanner) (models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(&c.ID, &c.ElectionID, &c.PersonID, &c.Role, &c.Name, &c.Department,
		&c.Year, &c.PhotoURL, &c.Manifesto, &c.VoteCount, &c.CreatedAt)
	return c, err
}

// getElection returns sql.ErrNoRows when the election does not exist
func getElection(ctx context.Context, q querier, id string) (models.Election, error) {
	return scanElection(q.QueryRowContext(ctx,
		`SELECT `+electionColumns+` FROM election WHERE id = $1`, id))
}

func activeElection(ctx context.Context, q querier, institute string) (models.Election, error) {
	return scanElection(q.QueryRowContext(ctx,
		`SELECT `+electionColumns+` FROM election WHERE institute = $1 AND status = $2`,
		institute, models.StatusActive))
}

func latestElection(ctx context.Context, q querier, institute string) (models.Election, error) {
	return scanElection(q.QueryRowContext(ctx, `
		SELECT `+electionColumns+` FROM election
		WHERE institute = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, institute))
}

func listElections(ctx context.Context, q querier, institute string) ([]models.Election, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+electionColumns+` FROM election
		WHERE institute = $1
		ORDER BY created_at DESC, id DESC
	`, institute)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		elections = append(elections, e)
	}
	return elections, rows.Err()
}

// getCandidate returns sql.ErrNoRows when the candidate does not exist
func getCandidate(ctx context.Context, q querier, id string) (models.Candidate, error) {
	return scanCandidate(q.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidate WHERE id = $1`, id))
}

func listCandidates(ctx context.Context, q querier, electionID string) ([]models.Candidate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+candidateColumns+` FROM candidate
		WHERE election_id = $1
		ORDER BY role, created_at, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// votedRoles lists the roles the voter holds a ballot for in the election
func votedRoles(ctx context.Context, q querier, electionID, voterID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT role FROM ballot
		WHERE election_id = $1 AND voter_id = $2
		ORDER BY role
	`, electionID, voterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("failed to scan ballot role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
