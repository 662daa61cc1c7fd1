// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/ballot"
	"github.com/danielhkuo/campus-vote/directory"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/testutil"
)

const president = "SDC President"

var (
	admin = testutil.Identity("admin-1", auth.RoleAdmin)
	voter = testutil.Identity("voter-1", auth.RoleStudent)
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	return NewService(conn, directory.NewSQLDirectory(conn)), conn
}

func startRequest(title string) models.StartElectionRequest {
	now := time.Now()
	return models.StartElectionRequest{
		Title:     title,
		StartTime: now.Add(-time.Minute),
		EndTime:   now.Add(24 * time.Hour),
	}
}

// startWithCandidates opens an election and nominates one person per name
// for role, returning candidate IDs in order.
func startWithCandidates(t *testing.T, svc *Service, conn *sql.DB, role string, emails ...string) (models.Election, []string) {
	t.Helper()
	ctx := context.Background()

	e, err := svc.Start(ctx, admin, startRequest("SDC 2025"))
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var ids []string
	for _, email := range emails {
		testutil.CreateTestPerson(t, conn, email, email)
		c, err := svc.Nominate(ctx, admin, models.NominateRequest{Person: email, Role: role})
		if err != nil {
			t.Fatalf("Nominate %s failed: %v", email, err)
		}
		ids = append(ids, c.ID)
	}
	return e, ids
}

func TestPhaseOf(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		election models.Election
		want     Phase
	}{
		{"active before end", models.Election{Status: models.StatusActive, EndTime: now.Add(time.Hour)}, PhaseOpen},
		{"active at end", models.Election{Status: models.StatusActive, EndTime: now}, PhaseExpired},
		{"active past end", models.Election{Status: models.StatusActive, EndTime: now.Add(-time.Hour)}, PhaseExpired},
		{"ended before end", models.Election{Status: models.StatusEnded, EndTime: now.Add(time.Hour)}, PhaseEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhaseOf(tt.election, now); got != tt.want {
				t.Errorf("PhaseOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartValidation(t *testing.T) {
	svc, _ := newTestService(t)
	now := time.Now()

	tests := []struct {
		name    string
		caller  auth.Identity
		req     models.StartElectionRequest
		wantErr error
	}{
		{"not admin", voter, startRequest("SDC 2025"), ErrForbidden},
		{"missing title", admin, startRequest("  "), ErrInvalidElection},
		{"missing start", admin, models.StartElectionRequest{Title: "x", EndTime: now}, ErrInvalidElection},
		{"missing end", admin, models.StartElectionRequest{Title: "x", StartTime: now}, ErrInvalidElection},
		{"end before start", admin, models.StartElectionRequest{Title: "x", StartTime: now, EndTime: now.Add(-time.Hour)}, ErrInvalidElection},
		{"end equals start", admin, models.StartElectionRequest{Title: "x", StartTime: now, EndTime: now}, ErrInvalidElection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), tt.caller, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLifecycleExclusivity(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	first, err := svc.Start(ctx, admin, startRequest("First"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Start(ctx, admin, startRequest("Second"))
	if err != nil {
		t.Fatal(err)
	}

	var active int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM election WHERE institute = $1 AND status = 'active'`,
		testutil.TestInstitute).Scan(&active); err != nil {
		t.Fatal(err)
	}
	if active != 1 {
		t.Errorf("expected exactly 1 active election, got %d", active)
	}

	old, err := getElection(ctx, conn, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if old.Status != models.StatusEnded || old.EndedAt == nil {
		t.Errorf("expected first election ended with endedAt set, got %q", old.Status)
	}

	state, err := svc.Current(ctx, voter)
	if err != nil {
		t.Fatal(err)
	}
	if state.Election == nil || state.Election.ID != second.ID {
		t.Errorf("expected current election %s, got %+v", second.ID, state.Election)
	}
}

func TestConcurrentStartsLeaveOneActive(t *testing.T) {
	svc, conn := newTestService(t)

	const n = 5
	var wg sync.WaitGroup
	var unexpected atomic.Int32

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(context.Background(), admin, startRequest("Race"))
			if err != nil && !errors.Is(err, ErrStartConflict) {
				unexpected.Add(1)
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if unexpected.Load() != 0 {
		t.Fatalf("%d starts failed unexpectedly", unexpected.Load())
	}

	var active int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM election WHERE status = 'active'`).Scan(&active); err != nil {
		t.Fatal(err)
	}
	if active != 1 {
		t.Errorf("expected exactly 1 active election, got %d", active)
	}
}

func TestStop(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Stop(ctx, admin); !errors.Is(err, ErrNoActiveElection) {
		t.Errorf("expected ErrNoActiveElection, got %v", err)
	}

	if _, err := svc.Start(ctx, admin, startRequest("SDC 2025")); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Stop(ctx, voter); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for student, got %v", err)
	}

	e, err := svc.Stop(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != models.StatusEnded || e.EndedAt == nil {
		t.Errorf("expected ended election, got %+v", e)
	}

	if _, err := svc.Stop(ctx, admin); !errors.Is(err, ErrNoActiveElection) {
		t.Errorf("expected ErrNoActiveElection on second stop, got %v", err)
	}
}

func TestCurrentFallback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	state, err := svc.Current(ctx, voter)
	if err != nil {
		t.Fatal(err)
	}
	if state.Election != nil || len(state.Candidates) != 0 || state.VotedRoles == nil {
		t.Errorf("expected empty state, got %+v", state)
	}

	e, _ := svc.Start(ctx, admin, startRequest("SDC 2025"))
	if _, err := svc.Stop(ctx, admin); err != nil {
		t.Fatal(err)
	}

	state, err = svc.Current(ctx, voter)
	if err != nil {
		t.Fatal(err)
	}
	if state.Election == nil || state.Election.ID != e.ID {
		t.Fatalf("expected ended election %s to stay visible, got %+v", e.ID, state.Election)
	}
	if state.Election.Status != models.StatusEnded {
		t.Errorf("expected status ended, got %q", state.Election.Status)
	}

	other := auth.Identity{UserID: "x", Role: auth.RoleStudent, Institute: "elsewhere"}
	state, err = svc.Current(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if state.Election != nil {
		t.Errorf("expected no election for another institute, got %+v", state.Election)
	}
}

func TestFullFlow(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	e, err := svc.Start(ctx, admin, startRequest("SDC 2025"))
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != models.StatusActive {
		t.Fatalf("expected active, got %q", e.Status)
	}

	testutil.CreateTestPerson(t, conn, "s1@campus.edu", "S1")
	s1, err := svc.Nominate(ctx, admin, models.NominateRequest{Person: "s1@campus.edu", Role: president})
	if err != nil {
		t.Fatal(err)
	}
	if s1.Name != "S1" || s1.Department != "Computer Science" {
		t.Errorf("expected display fields copied from directory, got %+v", s1)
	}

	if err := svc.CastVote(ctx, voter, s1.ID); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if got := testutil.VoteCount(t, conn, s1.ID); got != 1 {
		t.Errorf("expected S1 voteCount 1, got %d", got)
	}

	if err := svc.CastVote(ctx, voter, s1.ID); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted, got %v", err)
	}

	testutil.CreateTestPerson(t, conn, "s2@campus.edu", "S2")
	s2, err := svc.Nominate(ctx, admin, models.NominateRequest{Person: "s2@campus.edu", Role: president})
	if err != nil {
		t.Fatal(err)
	}

	w := testutil.Identity("voter-w", auth.RoleStudent)
	if err := svc.CastVote(ctx, w, s2.ID); err != nil {
		t.Fatalf("W vote failed: %v", err)
	}
	if got := testutil.VoteCount(t, conn, s2.ID); got != 1 {
		t.Errorf("expected S2 voteCount 1, got %d", got)
	}

	// V already holds a president ballot, so S2 is refused too
	if err := svc.CastVote(ctx, voter, s2.ID); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("expected ErrAlreadyVoted across the role cohort, got %v", err)
	}

	state, err := svc.Current(ctx, voter)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.VotedRoles) != 1 || state.VotedRoles[0] != president {
		t.Errorf("expected votedRoles [%s], got %v", president, state.VotedRoles)
	}

	if _, err := svc.Stop(ctx, admin); err != nil {
		t.Fatal(err)
	}
	if err := svc.CastVote(ctx, testutil.Identity("voter-z", auth.RoleStudent), s1.ID); !errors.Is(err, ErrNoActiveElection) {
		t.Errorf("expected ErrNoActiveElection after stop, got %v", err)
	}
}

func TestCastVoteErrors(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	e, ids := startWithCandidates(t, svc, conn, president, "a@campus.edu")

	// Stale row outside the contestable set
	bogus := testutil.AddTestCandidate(t, conn, e.ID, "legacy-person", "Class Monitor")

	// Candidate of an older election
	oldElection := testutil.CreateTestElection(t, conn, models.StatusEnded, time.Now().Add(-time.Hour))
	foreign := testutil.AddTestCandidate(t, conn, oldElection, "old-person", president)

	tests := []struct {
		name        string
		voter       auth.Identity
		candidateID string
		wantErr     error
	}{
		{"admin cannot vote", admin, ids[0], ErrForbidden},
		{"professor cannot vote", testutil.Identity("prof", auth.RoleProfessor), ids[0], ErrForbidden},
		{"missing candidate id", voter, "", ErrMissingCandidate},
		{"unknown candidate", voter, "nope", ErrCandidateNotFound},
		{"candidate of another election", voter, foreign, ErrCandidateNotFound},
		{"role outside the fixed set", voter, bogus, ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.CastVote(ctx, tt.voter, tt.candidateID); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if got := testutil.VoteCount(t, conn, ids[0]); got != 0 {
		t.Errorf("rejected votes must not count, got %d", got)
	}
}

func TestLazyExpiry(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	e, ids := startWithCandidates(t, svc, conn, president, "a@campus.edu")

	svc.now = func() time.Time { return e.EndTime.Add(time.Second) }

	if err := svc.CastVote(ctx, voter, ids[0]); !errors.Is(err, ErrVotingClosed) {
		t.Errorf("expected ErrVotingClosed past endTime, got %v", err)
	}

	testutil.CreateTestPerson(t, conn, "late@campus.edu", "Late")
	_, err := svc.Nominate(ctx, admin, models.NominateRequest{Person: "late@campus.edu", Role: president})
	if !errors.Is(err, ErrElectionNotActive) {
		t.Errorf("expected ErrElectionNotActive past endTime, got %v", err)
	}

	// Status still reads active until an explicit stop
	stored, err := getElection(ctx, conn, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.StatusActive {
		t.Errorf("expected status to remain active, got %q", stored.Status)
	}
}

func TestNominate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	e, _ := startWithCandidates(t, svc, conn, president, "taken@campus.edu")
	freeID := testutil.CreateTestPerson(t, conn, "free@campus.edu", "Free")

	_, err := conn.Exec(`INSERT INTO person (id, email, name, institute) VALUES ('outsider', 'out@else.edu', 'Out', 'elsewhere')`)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		caller  auth.Identity
		req     models.NominateRequest
		wantErr error
	}{
		{"student cannot nominate", voter, models.NominateRequest{Person: "free@campus.edu", Role: president}, ErrForbidden},
		{"missing person", admin, models.NominateRequest{Role: president}, ErrInvalidNomination},
		{"unknown election", admin, models.NominateRequest{ElectionID: "missing", Person: "free@campus.edu", Role: president}, ErrElectionNotFound},
		{"unknown role", admin, models.NominateRequest{Person: "free@campus.edu", Role: "Class Monitor"}, ErrUnknownRole},
		{"unknown person", admin, models.NominateRequest{Person: "ghost@campus.edu", Role: president}, ErrPersonNotFound},
		{"person of another institute", admin, models.NominateRequest{Person: "outsider", Role: president}, ErrPersonNotFound},
		{"duplicate in same role", admin, models.NominateRequest{Person: "taken@campus.edu", Role: president}, ErrDuplicateNomination},
		{"duplicate in another role", admin, models.NominateRequest{Person: "TAKEN@campus.edu", Role: "SDC Treasurer"}, ErrDuplicateNomination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Nominate(ctx, tt.caller, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("by id with explicit election", func(t *testing.T) {
		c, err := svc.Nominate(ctx, admin, models.NominateRequest{ElectionID: e.ID, Person: freeID, Role: "Sports Secretary"})
		if err != nil {
			t.Fatal(err)
		}
		if c.PersonID != freeID || c.ElectionID != e.ID || c.VoteCount != 0 {
			t.Errorf("unexpected candidate %+v", c)
		}
	})

	t.Run("no active election", func(t *testing.T) {
		if _, err := svc.Stop(ctx, admin); err != nil {
			t.Fatal(err)
		}
		_, err := svc.Nominate(ctx, admin, models.NominateRequest{Person: "free@campus.edu", Role: president})
		if !errors.Is(err, ErrElectionNotActive) {
			t.Errorf("expected ErrElectionNotActive, got %v", err)
		}
	})
}

func TestUpdateManifesto(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	startWithCandidates(t, svc, conn, president, "cand@campus.edu")
	var personID, candidateID string
	if err := conn.QueryRow(`SELECT person_id, id FROM candidate`).Scan(&personID, &candidateID); err != nil {
		t.Fatal(err)
	}
	self := testutil.Identity(personID, auth.RoleStudent)

	long := make([]rune, MaxManifestoLength+1)
	for i := range long {
		long[i] = 'é'
	}

	tests := []struct {
		name        string
		caller      auth.Identity
		candidateID string
		text        string
		wantErr     error
	}{
		{"unknown candidate", self, "nope", "hello", ErrCandidateNotFound},
		{"someone else", voter, candidateID, "hello", ErrForbidden},
		{"too long", self, candidateID, string(long), ErrManifestoTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpdateManifesto(ctx, tt.caller, tt.candidateID, tt.text); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	got, err := svc.UpdateManifesto(ctx, self, candidateID, "  Better wifi.  ")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Better wifi." {
		t.Errorf("expected trimmed manifesto, got %q", got)
	}

	if _, err := svc.Stop(ctx, admin); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateManifesto(ctx, self, candidateID, "Too late"); !errors.Is(err, ErrElectionEnded) {
		t.Errorf("expected ErrElectionEnded, got %v", err)
	}
}

func TestWithdrawalReopensRole(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, ids := startWithCandidates(t, svc, conn, president, "a@campus.edu", "b@campus.edu")
	a, b := ids[0], ids[1]

	if err := svc.CastVote(ctx, voter, a); err != nil {
		t.Fatal(err)
	}
	if err := svc.CastVote(ctx, voter, b); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted before withdrawal, got %v", err)
	}

	if _, err := svc.Withdraw(ctx, voter, a); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for student, got %v", err)
	}

	remaining, err := svc.Withdraw(ctx, admin, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != b {
		t.Errorf("expected only B to remain, got %+v", remaining)
	}
	if n := testutil.BallotCount(t, conn, a); n != 0 {
		t.Errorf("expected A's ballots deleted, got %d", n)
	}

	if err := svc.CastVote(ctx, voter, b); err != nil {
		t.Fatalf("expected vote for B to succeed after withdrawal, got %v", err)
	}
	if got := testutil.VoteCount(t, conn, b); got != 1 {
		t.Errorf("expected B voteCount 1, got %d", got)
	}

	if _, err := svc.Withdraw(ctx, admin, a); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("expected ErrCandidateNotFound for second withdrawal, got %v", err)
	}

	if _, err := svc.Stop(ctx, admin); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Withdraw(ctx, admin, b); !errors.Is(err, ErrElectionEnded) {
		t.Errorf("expected ErrElectionEnded after stop, got %v", err)
	}
}

func TestTallyConsistency(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	e, ids := startWithCandidates(t, svc, conn, president, "a@campus.edu", "b@campus.edu", "c@campus.edu")

	testutil.CreateTestPerson(t, conn, "t@campus.edu", "T")
	treasurer, err := svc.Nominate(ctx, admin, models.NominateRequest{Person: "t@campus.edu", Role: "SDC Treasurer"})
	if err != nil {
		t.Fatal(err)
	}

	voters := []string{"v1", "v2", "v3", "v4", "v5", "v6"}
	for i, v := range voters {
		id := testutil.Identity(v, auth.RoleStudent)
		if err := svc.CastVote(ctx, id, ids[i%len(ids)]); err != nil {
			t.Fatal(err)
		}
		// Different role, independent scope
		if err := svc.CastVote(ctx, id, treasurer.ID); err != nil {
			t.Fatal(err)
		}
		svc.CastVote(ctx, id, ids[(i+1)%len(ids)]) // rejected, must not count
	}

	if _, err := svc.Withdraw(ctx, admin, ids[1]); err != nil {
		t.Fatal(err)
	}

	all := append([]string{treasurer.ID}, ids[0], ids[2])
	for _, id := range all {
		if vc, bc := testutil.VoteCount(t, conn, id), testutil.BallotCount(t, conn, id); vc != bc {
			t.Errorf("candidate %s: voteCount %d != ballots %d", id, vc, bc)
		}
	}

	_, results, err := svc.Results(ctx, voter, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, role := range results {
		for _, c := range role.Candidates {
			if c.Drift {
				t.Errorf("unexpected drift for %s", c.CandidateID)
			}
		}
	}
}

func TestConcurrentCastVote(t *testing.T) {
	svc, conn := newTestService(t)

	_, ids := startWithCandidates(t, svc, conn, president, "a@campus.edu", "b@campus.edu")

	const n = 10
	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int32

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := svc.CastVote(context.Background(), voter, ids[i%2])
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrAlreadyVoted):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("expected exactly 1 success, got %d", succeeded.Load())
	}
	if rejected.Load() != n-1 {
		t.Errorf("expected %d AlreadyVoted, got %d", n-1, rejected.Load())
	}

	total := testutil.VoteCount(t, conn, ids[0]) + testutil.VoteCount(t, conn, ids[1])
	if total != 1 {
		t.Errorf("expected total voteCount 1, got %d", total)
	}
}

// blindLedger never finds an existing ballot, so a repeat cast reaches
// the ballot table's unique index the way a concurrent one would.
type blindLedger struct {
	*ballotLedger
}

func (blindLedger) Lookup(context.Context, *sql.Tx, RoleScope, string) (string, bool, error) {
	return "", false, nil
}

func TestUniqueIndexRejectsSecondBallot(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	_, ids := startWithCandidates(t, svc, conn, president, "a@campus.edu", "b@campus.edu")
	svc.box = ballot.NewBox[RoleScope, string](conn, blindLedger{&ballotLedger{now: svc.clock}}, voteCounter{}, ballot.Immutable)

	if err := svc.CastVote(ctx, voter, ids[0]); err != nil {
		t.Fatalf("first CastVote failed: %v", err)
	}
	// Another candidate for the same role, so only (election, voter, role) matches
	if err := svc.CastVote(ctx, voter, ids[1]); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted from the unique index, got %v", err)
	}

	if got := testutil.VoteCount(t, conn, ids[1]); got != 0 {
		t.Errorf("expected rejected candidate voteCount 0, got %d", got)
	}
	if got := testutil.BallotCount(t, conn, ids[0]) + testutil.BallotCount(t, conn, ids[1]); got != 1 {
		t.Errorf("expected 1 ballot for the role, got %d", got)
	}
}

func TestBallotLedgerRefusesReplace(t *testing.T) {
	ok, err := (&ballotLedger{}).Replace(context.Background(), nil, RoleScope{}, "voter-1", "a", "b")
	if ok || !errors.Is(err, ballot.ErrAlreadyCast) {
		t.Errorf("Replace() = %v, %v; want false, ErrAlreadyCast", ok, err)
	}
}

func TestResultsAndReconcile(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	e, ids := startWithCandidates(t, svc, conn, president, "a@campus.edu", "b@campus.edu")
	for _, v := range []string{"v1", "v2"} {
		if err := svc.CastVote(ctx, testutil.Identity(v, auth.RoleStudent), ids[1]); err != nil {
			t.Fatal(err)
		}
	}

	// Simulate a counter that drifted from the ledger
	if _, err := conn.Exec(`UPDATE candidate SET vote_count = 7 WHERE id = $1`, ids[0]); err != nil {
		t.Fatal(err)
	}

	_, results, err := svc.Results(ctx, voter, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Role != president {
		t.Fatalf("expected one role result, got %+v", results)
	}
	leader := results[0].Candidates[0]
	if leader.CandidateID != ids[1] || leader.Ballots != 2 {
		t.Errorf("expected B leading with 2 ballots, got %+v", leader)
	}
	if drifted := results[0].Candidates[1]; !drifted.Drift || drifted.VoteCount != 7 || drifted.Ballots != 0 {
		t.Errorf("expected A flagged as drifted, got %+v", drifted)
	}

	if _, err := svc.Reconcile(ctx, voter, e.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for student, got %v", err)
	}
	if _, err := svc.Reconcile(ctx, admin, "missing"); !errors.Is(err, ErrElectionNotFound) {
		t.Errorf("expected ErrElectionNotFound, got %v", err)
	}

	repaired, err := svc.Reconcile(ctx, admin, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if repaired != 1 {
		t.Errorf("expected 1 repaired candidate, got %d", repaired)
	}
	if got := testutil.VoteCount(t, conn, ids[0]); got != 0 {
		t.Errorf("expected voteCount reset to 0, got %d", got)
	}

	repaired, err = svc.Reconcile(ctx, admin, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if repaired != 0 {
		t.Errorf("expected nothing to repair, got %d", repaired)
	}
}

func TestHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"2024", "2025"} {
		if _, err := svc.Start(ctx, admin, startRequest(title)); err != nil {
			t.Fatal(err)
		}
	}

	elections, err := svc.History(ctx, voter)
	if err != nil {
		t.Fatal(err)
	}
	if len(elections) != 2 {
		t.Fatalf("expected 2 elections, got %d", len(elections))
	}

	var active int
	for _, e := range elections {
		if e.Status == models.StatusActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("expected 1 active election in history, got %d", active)
	}
}
