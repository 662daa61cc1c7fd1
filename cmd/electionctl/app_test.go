// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/testutil"
)

// runApp runs electionctl with args and returns what it printed
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"electionctl"}, args...))
	return out.String(), err
}

// seedDB creates a file database with one drifted candidate
func seedDB(t *testing.T) (path, electionID, candidateID string) {
	t.Helper()

	path = filepath.Join(t.TempDir(), "campus.db")
	conn, err := db.Open(db.TypeSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := db.CreateSchema(conn); err != nil {
		t.Fatal(err)
	}

	electionID = testutil.CreateTestElection(t, conn, models.StatusActive, time.Now().Add(time.Hour))
	candidateID = testutil.AddTestCandidate(t, conn, electionID, "p1", "SDC President")
	if _, err := conn.Exec(`UPDATE candidate SET vote_count = 4 WHERE id = $1`, candidateID); err != nil {
		t.Fatal(err)
	}

	return path, electionID, candidateID
}

func TestResultsCommand(t *testing.T) {
	path, electionID, _ := seedDB(t)

	out, err := runApp(t, "results", "-d", path, "-i", testutil.TestInstitute)
	if err != nil {
		t.Fatalf("results failed: %v\n%s", err, out)
	}

	for _, want := range []string{"Test Election", electionID, "SDC President", "Test Candidate", "drifted"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestReconcileCommand(t *testing.T) {
	path, electionID, candidateID := seedDB(t)

	out, err := runApp(t, "reconcile", "-d", path, "-i", testutil.TestInstitute, "-e", electionID)
	if err != nil {
		t.Fatalf("reconcile failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "repaired 1") {
		t.Errorf("expected 1 repaired candidate:\n%s", out)
	}

	out, err = runApp(t, "reconcile", "-d", path, "-i", testutil.TestInstitute, "-e", electionID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "all vote counts match") {
		t.Errorf("expected nothing left to repair:\n%s", out)
	}

	conn, err := db.Open(db.TypeSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if got := testutil.VoteCount(t, conn, candidateID); got != 0 {
		t.Errorf("expected vote count 0, got %d", got)
	}
}

func TestResultsUnknownInstitute(t *testing.T) {
	path, _, _ := seedDB(t)

	if _, err := runApp(t, "results", "-d", path, "-i", "elsewhere"); err == nil {
		t.Error("expected error for institute without elections")
	}
}

func TestTokenCommand(t *testing.T) {
	out, err := runApp(t, "token", "-u", "u1", "-r", auth.RoleAdmin, "-i", "iit", "--secret", "s3cret")
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	id, err := auth.ParseToken(strings.TrimSpace(out), "s3cret")
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if id.UserID != "u1" || id.Role != auth.RoleAdmin || id.Institute != "iit" || id.ExpiresAt == 0 {
		t.Errorf("unexpected identity %+v", id)
	}

	if _, err := runApp(t, "token", "-u", "u1", "-r", "dean", "-i", "iit", "--secret", "s"); err == nil {
		t.Error("expected error for unknown role")
	}
}
