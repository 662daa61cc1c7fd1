// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - StartElectionRequest: title, description, startTime, endTime
  - NominateRequest: electionId (optional), person, role
  - CastVoteRequest: candidateId
  - UpdateManifestoRequest: candidateId, manifesto
  - ForumVoteRequest: questionId or answerId
  - CreateQuestionRequest, CreateAnswerRequest

# Response Types

  - ElectionStateResponse: election, candidates, hasVoted, votedRoles
  - ElectionResponse, CandidateResponse, CandidatesResponse
  - ResultsResponse: per-role ledger counts next to stored counters
  - ForumVoteResponse: votes, userVote
  - ErrorResponse: error, message

# Domain Types

  - Election: lifecycle state for one institute
  - Candidate: nominee with denormalized display fields and voteCount
  - Question, Answer: forum items carrying their own vote tally

# Constants

Election status values:

	StatusActive = "active"
	StatusEnded  = "ended"

Forum directions:

	VoteUp   = "up"
	VoteDown = "down"

Council roles are listed in ContestableRoles.
*/
package models
