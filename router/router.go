// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/handlers"
	"github.com/danielhkuo/campus-vote/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg)
	forumHandler := handlers.NewForumHandler(db, cfg)

	// Every API route is logged and carries the bearer identity, if any
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithIdentity(cfg.TokenSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election lifecycle (admin)
	mux.HandleFunc("GET /election", api(electionHandler.GetCurrent))
	mux.HandleFunc("POST /election/start", api(electionHandler.StartElection))
	mux.HandleFunc("POST /election/stop", api(electionHandler.StopElection))

	// Candidate registry
	mux.HandleFunc("POST /election/nominate", api(electionHandler.Nominate))
	mux.HandleFunc("DELETE /election/nominate/{candidateId}", api(electionHandler.Withdraw))
	mux.HandleFunc("POST /election/manifesto", api(electionHandler.UpdateManifesto))

	// Voting (students)
	mux.HandleFunc("POST /election/vote", api(electionHandler.CastVote))

	// History and results
	mux.HandleFunc("GET /election/history", api(electionHandler.GetHistory))
	mux.HandleFunc("GET /election/{id}/results", api(electionHandler.GetResults))
	mux.HandleFunc("POST /election/{id}/reconcile", api(electionHandler.Reconcile))

	// Forum toggle-votes
	mux.HandleFunc("POST /forum/upvote-question", api(forumHandler.UpvoteQuestion))
	mux.HandleFunc("POST /forum/downvote-question", api(forumHandler.DownvoteQuestion))
	mux.HandleFunc("POST /forum/upvote-answer", api(forumHandler.UpvoteAnswer))
	mux.HandleFunc("POST /forum/downvote-answer", api(forumHandler.DownvoteAnswer))

	// Forum threads
	mux.HandleFunc("POST /forum/questions", api(forumHandler.CreateQuestion))
	mux.HandleFunc("GET /forum/questions/{id}", api(forumHandler.GetThread))
	mux.HandleFunc("POST /forum/questions/{id}/answers", api(forumHandler.CreateAnswer))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("campus-vote API v1"))
	})

	return mux
}
