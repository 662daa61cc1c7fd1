// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the campus voting API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - ElectionHandler: Election lifecycle, nominations, votes and results
  - ForumHandler: Questions, answers and their toggle-votes

Handlers are created via constructor functions that accept *sql.DB and Config:

	electionHandler := handlers.NewElectionHandler(db, cfg)

# Authentication

Handlers read the caller from the request context, placed there by
middleware.WithIdentity. Election endpoints answer 401 without a caller.
Forum votes and posts answer 403, the same as a caller whose role may not
take part.

# Election Flow

	POST   /election/start                   → StartElection (admin)
	POST   /election/nominate                → Nominate (admin)
	POST   /election/vote                    → CastVote (student)
	DELETE /election/nominate/{candidateId}  → Withdraw (admin)
	POST   /election/stop                    → StopElection (admin)

# Errors

Domain errors map to status codes in errors.go: validation and state
errors are 400, duplicate ballots and start races 409, role checks 403,
unknown records 404. Withdrawing from a closed election is 409. Anything
else is logged and answered with 500.
*/
package handlers
