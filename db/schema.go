// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are portable between PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Directory of people who can be nominated
CREATE TABLE IF NOT EXISTS person (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    department TEXT NOT NULL DEFAULT '',
    year INTEGER NOT NULL DEFAULT 0,
    photo_url TEXT NOT NULL DEFAULT '',
    institute TEXT NOT NULL
);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    institute TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'ended')),
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    ended_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_election_institute ON election(institute, created_at);
CREATE UNIQUE INDEX IF NOT EXISTS idx_election_one_active ON election(institute) WHERE status = 'active';

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    person_id TEXT NOT NULL,
    role TEXT NOT NULL,
    name TEXT NOT NULL,
    department TEXT NOT NULL DEFAULT '',
    year INTEGER NOT NULL DEFAULT 0,
    photo_url TEXT NOT NULL DEFAULT '',
    manifesto TEXT NOT NULL DEFAULT '',
    vote_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (election_id, person_id)
);

CREATE INDEX IF NOT EXISTS idx_candidate_election_role ON candidate(election_id, role);

-- Ballots
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    voter_id TEXT NOT NULL,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    role TEXT NOT NULL,
    cast_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (election_id, voter_id, role)
);

CREATE INDEX IF NOT EXISTS idx_ballot_candidate ON ballot(candidate_id);

-- Forum questions
CREATE TABLE IF NOT EXISTS question (
    id TEXT PRIMARY KEY,
    institute TEXT NOT NULL,
    author_id TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    votes INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Forum answers
CREATE TABLE IF NOT EXISTS answer (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL REFERENCES question(id) ON DELETE CASCADE,
    author_id TEXT NOT NULL,
    body TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_answer_question ON answer(question_id);

-- One up/down entry per voter per forum item
CREATE TABLE IF NOT EXISTS item_vote (
    item_kind TEXT NOT NULL CHECK (item_kind IN ('question', 'answer')),
    item_id TEXT NOT NULL,
    voter_id TEXT NOT NULL,
    direction TEXT NOT NULL CHECK (direction IN ('up', 'down')),
    voted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (item_kind, item_id, voter_id)
);
`
