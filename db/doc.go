// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open selects the driver from DATABASE_TYPE and pings the server:

	conn, err := db.Open(db.TypePostgres, "postgres://...")
	conn, err := db.Open(db.TypeSQLite, "file:campus.db")

PostgreSQL uses github.com/lib/pq; SQLite uses modernc.org/sqlite (pure
Go, no cgo). SQLite connections are limited to one, so transactions
queue behind each other.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes. The same statements run on both databases.

# Tables

  - person: Directory of nominable people
  - election: Election metadata and lifecycle state
  - candidate: Nominations with a denormalized vote_count
  - ballot: One ballot per (election, voter, role)
  - question, answer: Forum posts with a denormalized votes tally
  - item_vote: One up/down vote per (item, voter)

# Relationships

	election 1──* candidate
	election 1──* ballot
	candidate 1──* ballot
	question 1──* answer
	question/answer 1──* item_vote

# Constraints

The integrity rules live in the schema, and services rely on them when
two requests race:

  - UNIQUE ballot(election_id, voter_id, role)
  - UNIQUE candidate(election_id, person_id)
  - PRIMARY KEY item_vote(item_kind, item_id, voter_id)
  - UNIQUE election(institute) WHERE status = 'active'

IsUniqueViolation recognizes a violation of any of them from either
driver:

	if db.IsUniqueViolation(err) {
		return ErrAlreadyVoted
	}
*/
package db
