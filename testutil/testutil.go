// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/models"
)

// TestInstitute is the institute every fixture belongs to unless stated
const TestInstitute = "test-institute"

// SetupTestDB creates a fresh in-memory database with the full schema.
// Each call gets its own database, closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  ":memory:",
		DatabaseType: cliparse.DatabaseSQLite,
		TokenSecret:  "test-token-secret",
	}
}

// Identity builds an identity in TestInstitute
func Identity(userID, role string) auth.Identity {
	return auth.Identity{UserID: userID, Role: role, Institute: TestInstitute}
}

// BearerHeader signs id with the test config secret and returns request
// headers carrying it
func BearerHeader(t *testing.T, id auth.Identity) map[string]string {
	t.Helper()

	token, err := auth.IssueToken(id, GetTestConfig().TokenSecret)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// CreateTestPerson adds a directory entry and returns its ID
func CreateTestPerson(t *testing.T, conn *sql.DB, email, name string) string {
	t.Helper()

	personID := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO person (id, email, name, department, year, photo_url, institute)
		VALUES ($1, $2, $3, 'Computer Science', 3, '', $4)
	`, personID, email, name, TestInstitute)
	if err != nil {
		t.Fatalf("Failed to create test person: %v", err)
	}

	return personID
}

// CreateTestElection inserts an election of TestInstitute that closes at
// endTime. status should be "active" or "ended".
func CreateTestElection(t *testing.T, conn *sql.DB, status string, endTime time.Time) string {
	t.Helper()

	electionID := auth.GenerateID()
	now := time.Now().UTC()

	var endedAt *time.Time
	if status == models.StatusEnded {
		endedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, institute, title, description, status, start_time, end_time, created_at, ended_at)
		VALUES ($1, $2, 'Test Election', 'A test election', $3, $4, $5, $6, $7)
	`, electionID, TestInstitute, status, now.Add(-time.Hour), endTime.UTC(), now, endedAt)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID
}

// AddTestCandidate nominates personID for role directly in storage and
// returns the candidate ID
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, personID, role string) string {
	t.Helper()

	candidateID := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, election_id, person_id, role, name, department, year, photo_url, manifesto, vote_count, created_at)
		VALUES ($1, $2, $3, $4, 'Test Candidate', 'Computer Science', 3, '', '', 0, $5)
	`, candidateID, electionID, personID, role, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// VoteCount reads the stored counter of a candidate
func VoteCount(t *testing.T, conn *sql.DB, candidateID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT vote_count FROM candidate WHERE id = $1`, candidateID).Scan(&n); err != nil {
		t.Fatalf("Failed to read vote count: %v", err)
	}
	return n
}

// BallotCount counts ledger rows referencing a candidate
func BallotCount(t *testing.T, conn *sql.DB, candidateID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ballot WHERE candidate_id = $1`, candidateID).Scan(&n); err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	return n
}

// CreateTestQuestion posts a question to TestInstitute and returns its ID
func CreateTestQuestion(t *testing.T, conn *sql.DB, authorID string) string {
	t.Helper()

	questionID := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO question (id, institute, author_id, title, body, votes, created_at)
		VALUES ($1, $2, $3, 'Test Question', 'What is the exam format?', 0, $4)
	`, questionID, TestInstitute, authorID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return questionID
}

// AddTestAnswer answers a question and returns the answer ID
func AddTestAnswer(t *testing.T, conn *sql.DB, questionID, authorID string) string {
	t.Helper()

	answerID := auth.GenerateID()
	_, err := conn.Exec(`
		INSERT INTO answer (id, question_id, author_id, body, votes, created_at)
		VALUES ($1, $2, $3, 'Open book.', 0, $4)
	`, answerID, questionID, authorID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test answer: %v", err)
	}

	return answerID
}

// ItemVotes reads the stored tally of a question or answer
func ItemVotes(t *testing.T, conn *sql.DB, table, id string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT votes FROM `+table+` WHERE id = $1`, id).Scan(&n); err != nil {
		t.Fatalf("Failed to read %s votes: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
