// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import "errors"

// Validation
var (
	ErrInvalidElection   = errors.New("invalid election")
	ErrInvalidNomination = errors.New("invalid nomination")
	ErrUnknownRole       = errors.New("unknown role")
	ErrInvalidRole       = errors.New("candidate role is not contestable")
	ErrManifestoTooLong  = errors.New("manifesto too long")
	ErrMissingCandidate  = errors.New("candidateId is required")
)

// State conflicts
var (
	ErrNoActiveElection    = errors.New("no active election")
	ErrVotingClosed        = errors.New("voting has closed for this election")
	ErrElectionNotActive   = errors.New("election is not active")
	ErrElectionEnded       = errors.New("election has ended")
	ErrDuplicateNomination = errors.New("person is already nominated in this election")
	ErrAlreadyVoted        = errors.New("already voted for this role")
	ErrStartConflict       = errors.New("another election was started concurrently")
)

// Authorization and lookups
var (
	ErrForbidden         = errors.New("forbidden")
	ErrElectionNotFound  = errors.New("election not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrPersonNotFound    = errors.New("person not found")
)
