// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/models"
)

// Results counts ballots per candidate straight from the ledger and sets
// Drift wherever the stored vote_count disagrees. Roles follow
// models.ContestableRoles order; within a role the leader comes first.
func (s *Service) Results(ctx context.Context, caller auth.Identity, electionID string) (models.Election, []models.RoleResult, error) {
	e, err := s.institutionElection(ctx, caller, electionID)
	if err != nil {
		return models.Election{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.role, c.vote_count, COUNT(b.id)
		FROM candidate c
		LEFT JOIN ballot b ON b.candidate_id = c.id
		WHERE c.election_id = $1
		GROUP BY c.id, c.name, c.role, c.vote_count
	`, e.ID)
	if err != nil {
		return models.Election{}, nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	byRole := make(map[string][]models.CandidateResult)
	for rows.Next() {
		var r models.CandidateResult
		var role string
		if err := rows.Scan(&r.CandidateID, &r.Name, &role, &r.VoteCount, &r.Ballots); err != nil {
			return models.Election{}, nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Drift = r.VoteCount != r.Ballots
		byRole[role] = append(byRole[role], r)
	}
	if err := rows.Err(); err != nil {
		return models.Election{}, nil, fmt.Errorf("failed to iterate results: %w", err)
	}

	results := []models.RoleResult{}
	for _, role := range models.ContestableRoles {
		candidates, ok := byRole[role]
		if !ok {
			continue
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].Ballots != candidates[j].Ballots {
				return candidates[i].Ballots > candidates[j].Ballots
			}
			return candidates[i].Name < candidates[j].Name
		})
		results = append(results, models.RoleResult{Role: role, Candidates: candidates})
	}

	return e, results, nil
}

// Reconcile rewrites vote_count from the ballot ledger for every candidate
// of the election and returns how many rows were off.
func (s *Service) Reconcile(ctx context.Context, admin auth.Identity, electionID string) (int, error) {
	if !admin.HasRole(auth.RoleAdmin) {
		return 0, ErrForbidden
	}

	e, err := s.institutionElection(ctx, admin, electionID)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE candidate
		SET vote_count = (SELECT COUNT(*) FROM ballot WHERE ballot.candidate_id = candidate.id)
		WHERE election_id = $1
		  AND vote_count <> (SELECT COUNT(*) FROM ballot WHERE ballot.candidate_id = candidate.id)
	`, e.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile tallies: %w", err)
	}

	repaired, _ := res.RowsAffected()
	if repaired > 0 {
		slog.Warn("vote counts repaired", "election_id", e.ID, "candidates", repaired)
	}
	return int(repaired), nil
}

// institutionElection loads an election the caller's institute owns.
// Elections of other institutes read as not found.
func (s *Service) institutionElection(ctx context.Context, caller auth.Identity, electionID string) (models.Election, error) {
	e, err := getElection(ctx, s.db, electionID)
	if err == sql.ErrNoRows || (err == nil && e.Institute != caller.Institute) {
		return models.Election{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}
	return e, nil
}
