// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the campus voting API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

Every API route is wrapped in middleware.WithLogging and
middleware.WithIdentity.

# Endpoints

Health:

	GET /health

Elections:

	GET    /election                         - Current election and caller's votes
	POST   /election/start                   - Start (ends the active one)
	POST   /election/stop                    - Stop the active election
	POST   /election/nominate                - Nominate a candidate
	DELETE /election/nominate/{candidateId}  - Withdraw a candidate
	POST   /election/vote                    - Cast a ballot
	POST   /election/manifesto               - Edit own manifesto
	GET    /election/history                 - All elections of the institute
	GET    /election/{id}/results            - Ledger-derived results
	POST   /election/{id}/reconcile          - Repair vote counts

Forum:

	POST /forum/upvote-question     {questionId}
	POST /forum/downvote-question   {questionId}
	POST /forum/upvote-answer       {answerId}
	POST /forum/downvote-answer     {answerId}
	POST /forum/questions           - Ask
	GET  /forum/questions/{id}      - Thread with caller's votes
	POST /forum/questions/{id}/answers - Answer

# Handler Initialization

The router creates handler instances with dependency injection:

	electionHandler := handlers.NewElectionHandler(db, cfg)
	forumHandler := handlers.NewForumHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
