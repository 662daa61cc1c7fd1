// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the campus voting API server.

The server runs student council elections and forum up/down votes for
one or more institutes. Its guarantees: no voter is counted twice in a
scope, a forum vote can be flipped but never duplicated, and stored
tallies match the ballots behind them.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:campus.db TOKEN_SECRET=dev go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -token-secret dev

A .env file in the working directory is loaded if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite file
  - TOKEN_SECRET (-token-secret): HMAC secret for bearer tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (elections, forum)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, bearer identity, JSON helpers
  - election: Lifecycle, candidate registry, ballot casting
  - forum: Questions, answers, toggle-votes
  - ballot: Generic one-entry-per-voter ballot box
  - directory: Person lookup for nominations
  - models: Request/response types
  - auth: Bearer tokens and ID generation
  - db: Driver selection and schema
  - cliparse: Configuration parsing

The operator CLI lives in cmd/electionctl.

See package documentation for each component.
*/
package main
