package models

import "time"

// Election status constants
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// ContestableRoles is the fixed set of council roles an election runs.
// Each role is voted on independently.
var ContestableRoles = []string{
	"SDC President",
	"SDC Vice President",
	"SDC General Secretary",
	"SDC Treasurer",
	"Cultural Secretary",
	"Sports Secretary",
}

// IsContestableRole reports whether role is in ContestableRoles
func IsContestableRole(role string) bool {
	for _, r := range ContestableRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Forum vote directions
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Request types

type StartElectionRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

// Person is an email address or a directory ID.
// ElectionID defaults to the institute's active election.
type NominateRequest struct {
	ElectionID string `json:"electionId,omitempty"`
	Person     string `json:"person"`
	Role       string `json:"role"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidateId"`
}

type UpdateManifestoRequest struct {
	CandidateID string `json:"candidateId"`
	Manifesto   string `json:"manifesto"`
}

type ForumVoteRequest struct {
	QuestionID string `json:"questionId,omitempty"`
	AnswerID   string `json:"answerId,omitempty"`
}

type CreateQuestionRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type CreateAnswerRequest struct {
	Body string `json:"body"`
}

// Response types

type ElectionStateResponse struct {
	Election   *Election   `json:"election"`
	Candidates []Candidate `json:"candidates"`
	HasVoted   bool        `json:"hasVoted"`
	VotedRoles []string    `json:"votedRoles"`
	ClosesIn   string      `json:"closesIn,omitempty"` // e.g. "3 hours from now"
}

type ElectionResponse struct {
	Election Election `json:"election"`
}

type ElectionHistoryResponse struct {
	Elections []Election `json:"elections"`
}

type CandidateResponse struct {
	Candidate Candidate `json:"candidate"`
}

type CandidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type ManifestoResponse struct {
	Manifesto string `json:"manifesto"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ResultsResponse struct {
	Election Election     `json:"election"`
	Results  []RoleResult `json:"results"`
}

type ReconcileResponse struct {
	Repaired int `json:"repaired"`
}

type ForumVoteResponse struct {
	Votes    int    `json:"votes"`
	UserVote string `json:"userVote"`
}

type QuestionResponse struct {
	Question Question `json:"question"`
}

type AnswerResponse struct {
	Answer Answer `json:"answer"`
}

type ThreadResponse struct {
	Question Question `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Domain types

type Election struct {
	ID          string     `json:"id"`
	Institute   string     `json:"institute"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	CreatedAt   time.Time  `json:"createdAt"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
}

// Candidate display fields are copied from the directory at nomination
// and do not follow later profile edits.
type Candidate struct {
	ID         string    `json:"id"`
	ElectionID string    `json:"electionId"`
	PersonID   string    `json:"personId"`
	Role       string    `json:"role"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Year       int       `json:"year"`
	PhotoURL   string    `json:"photoUrl"`
	Manifesto  string    `json:"manifesto"`
	VoteCount  int       `json:"voteCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CandidateResult compares the stored counter with the ballot ledger
type CandidateResult struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	VoteCount   int    `json:"voteCount"`
	Ballots     int    `json:"ballots"`
	Drift       bool   `json:"drift,omitempty"`
}

type RoleResult struct {
	Role       string            `json:"role"`
	Candidates []CandidateResult `json:"candidates"`
}

type Question struct {
	ID        string    `json:"id"`
	Institute string    `json:"institute"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Votes     int       `json:"votes"`
	UserVote  string    `json:"userVote,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	AuthorID   string    `json:"authorId"`
	Body       string    `json:"body"`
	Votes      int       `json:"votes"`
	UserVote   string    `json:"userVote,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
