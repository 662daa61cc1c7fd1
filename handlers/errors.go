// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/election"
	"github.com/danielhkuo/campus-vote/forum"
	"github.com/danielhkuo/campus-vote/middleware"
)

// statusFor maps domain errors to HTTP status codes. Unknown errors map to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, election.ErrForbidden), errors.Is(err, forum.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, election.ErrElectionNotFound),
		errors.Is(err, election.ErrCandidateNotFound),
		errors.Is(err, election.ErrPersonNotFound),
		errors.Is(err, forum.ErrItemNotFound):
		return http.StatusNotFound

	case errors.Is(err, election.ErrAlreadyVoted),
		errors.Is(err, election.ErrStartConflict),
		errors.Is(err, forum.ErrVoteConflict):
		return http.StatusConflict

	case errors.Is(err, election.ErrInvalidElection),
		errors.Is(err, election.ErrInvalidNomination),
		errors.Is(err, election.ErrUnknownRole),
		errors.Is(err, election.ErrInvalidRole),
		errors.Is(err, election.ErrManifestoTooLong),
		errors.Is(err, election.ErrMissingCandidate),
		errors.Is(err, election.ErrNoActiveElection),
		errors.Is(err, election.ErrVotingClosed),
		errors.Is(err, election.ErrElectionNotActive),
		errors.Is(err, election.ErrElectionEnded),
		errors.Is(err, election.ErrDuplicateNomination),
		errors.Is(err, forum.ErrInvalidDirection),
		errors.Is(err, forum.ErrInvalidPost):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError answers with the status for err. Internal errors are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, err error, op string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err)
		middleware.ErrorResponse(w, status, "Internal error")
		return
	}
	middleware.ErrorResponse(w, status, err.Error())
}

// requireCaller returns the authenticated caller, or writes 401
func requireCaller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id := middleware.IdentityFrom(r.Context())
	if id.IsZero() {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return auth.Identity{}, false
	}
	return id, true
}
