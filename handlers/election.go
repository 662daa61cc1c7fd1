// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/directory"
	"github.com/danielhkuo/campus-vote/election"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

type ElectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	svc *election.Service
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{
		db:  db,
		cfg: cfg,
		svc: election.NewService(db, directory.NewSQLDirectory(db)),
	}
}

// GetCurrent handles GET /election
func (h *ElectionHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	state, err := h.svc.Current(r.Context(), caller)
	if err != nil {
		writeError(w, err, "get current election")
		return
	}

	resp := models.ElectionStateResponse{
		Election:   state.Election,
		Candidates: state.Candidates,
		HasVoted:   len(state.VotedRoles) > 0,
		VotedRoles: state.VotedRoles,
	}
	if state.Election != nil && election.PhaseOf(*state.Election, time.Now()) == election.PhaseOpen {
		resp.ClosesIn = humanize.Time(state.Election.EndTime)
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// StartElection handles POST /election/start
func (h *ElectionHandler) StartElection(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.StartElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.svc.Start(r.Context(), caller, req)
	if err != nil {
		writeError(w, err, "start election")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.ElectionResponse{Election: e})
}

// StopElection handles POST /election/stop
func (h *ElectionHandler) StopElection(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	e, err := h.svc.Stop(r.Context(), caller)
	if err != nil {
		writeError(w, err, "stop election")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionResponse{Election: e})
}

// Nominate handles POST /election/nominate
func (h *ElectionHandler) Nominate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.NominateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := h.svc.Nominate(r.Context(), caller, req)
	if err != nil {
		writeError(w, err, "nominate candidate")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CandidateResponse{Candidate: c})
}

// Withdraw handles DELETE /election/nominate/{candidateId}
func (h *ElectionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	candidateID := r.PathValue("candidateId")
	if candidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidateId is required")
		return
	}

	candidates, err := h.svc.Withdraw(r.Context(), caller, candidateID)
	if errors.Is(err, election.ErrElectionEnded) {
		// Withdrawing from a closed election conflicts with its results
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, err, "withdraw candidate")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{Candidates: candidates})
}

// CastVote handles POST /election/vote
func (h *ElectionHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.svc.CastVote(r.Context(), caller, req.CandidateID); err != nil {
		writeError(w, err, "cast vote")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Vote recorded"})
}

// UpdateManifesto handles POST /election/manifesto
func (h *ElectionHandler) UpdateManifesto(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req models.UpdateManifestoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	manifesto, err := h.svc.UpdateManifesto(r.Context(), caller, req.CandidateID, req.Manifesto)
	if err != nil {
		writeError(w, err, "update manifesto")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ManifestoResponse{Manifesto: manifesto})
}

// GetHistory handles GET /election/history
func (h *ElectionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	elections, err := h.svc.History(r.Context(), caller)
	if err != nil {
		writeError(w, err, "list elections")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionHistoryResponse{Elections: elections})
}

// GetResults handles GET /election/{id}/results
func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	e, results, err := h.svc.Results(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "get results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{Election: e, Results: results})
}

// Reconcile handles POST /election/{id}/reconcile
func (h *ElectionHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	repaired, err := h.svc.Reconcile(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "reconcile tallies")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReconcileResponse{Repaired: repaired})
}
