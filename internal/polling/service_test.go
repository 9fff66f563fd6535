package polling

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"pollguard/internal/csrf"
	"pollguard/internal/domain/poll"
	"pollguard/internal/domain/vote"
	"pollguard/internal/identity"
	"pollguard/internal/platform/database"
	"pollguard/internal/repository/sqlrepo"
	"pollguard/internal/validation"
)

type fixture struct {
	svc *Service
	db  *sql.DB
}

func setupService(t *testing.T, allowAnon bool) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, "file:"+filepath.Join(t.TempDir(), "polling.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pollRepo := sqlrepo.NewPollRepo(db)
	ledger := vote.NewLedger(sqlrepo.NewVoteRepo(db), pollRepo)
	store := poll.NewStore(pollRepo, ledger, database.NewTxManager(db))
	tokens := csrf.NewManager(csrf.NewMemoryStore(), csrf.DefaultTTL)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(identity.ContextGateway{}, tokens, store, ledger, logger, Options{
		AllowAnonymousVotes: allowAnon,
	})
	return fixture{svc: svc, db: db}
}

func as(userID, session string) context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{
		UserID:  userID,
		Role:    "user",
		Session: session,
	})
}

func issue(t *testing.T, svc *Service, ctx context.Context) string {
	t.Helper()
	token, err := svc.IssueToken(ctx)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestBestColorScenario(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc
	alice := as("alice", "sess-alice")
	bob := as("bob", "sess-bob")

	aliceToken := issue(t, svc, alice)
	p, aliceToken, err := svc.CreatePoll(alice, "  Best color? ", []string{"Red", " Blue ", ""}, aliceToken)
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	if p.Question != "Best color?" || len(p.Options) != 2 || p.Options[1] != "Blue" {
		t.Fatalf("poll not normalized: %+v", p)
	}
	if aliceToken == "" {
		t.Fatalf("expected rotated token")
	}

	bobToken := issue(t, svc, bob)
	_, bobToken, err = svc.CastVote(bob, p.ID, 1, bobToken)
	if err != nil {
		t.Fatalf("bob vote: %v", err)
	}
	if _, _, err := svc.CastVote(bob, p.ID, 0, bobToken); !errors.Is(err, vote.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}

	if _, _, err = svc.CastVote(alice, p.ID, 0, aliceToken); err != nil {
		t.Fatalf("alice vote: %v", err)
	}

	res, err := svc.GetResults(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.Total != 2 || res.Counts[0] != 1 || res.Counts[1] != 1 {
		t.Fatalf("unexpected tally %+v", res)
	}
	if res.Options[1].Text != "Blue" || res.Options[1].Percentage != 50 {
		t.Fatalf("unexpected result row %+v", res.Options[1])
	}

	mine, err := svc.ListMyPolls(alice)
	if err != nil || len(mine) != 1 || mine[0].ID != p.ID {
		t.Fatalf("list mine: %v %+v", err, mine)
	}
	if theirs, err := svc.ListMyPolls(bob); err != nil || len(theirs) != 0 {
		t.Fatalf("bob should own nothing: %v %+v", err, theirs)
	}
}

func TestTokenIsSingleUse(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc
	alice := as("alice", "sess-alice")

	token := issue(t, svc, alice)
	_, next, err := svc.CreatePoll(alice, "Q", []string{"a", "b"}, token)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, afterReplay, err := svc.CreatePoll(alice, "Q2", []string{"a", "b"}, token)
	if !errors.Is(err, csrf.ErrTokenMismatch) && !errors.Is(err, csrf.ErrTokenExpired) {
		t.Fatalf("expected token error on replay, got %v", err)
	}
	if KindOf(err) != KindToken {
		t.Fatalf("expected token kind, got %v", KindOf(err))
	}
	if afterReplay == "" || afterReplay == next {
		t.Fatalf("expected a fresh token after a failed check")
	}

	// the failed attempt invalidated the previously rotated token too
	if _, _, err := svc.CreatePoll(alice, "Q3", []string{"a", "b"}, next); KindOf(err) != KindToken {
		t.Fatalf("expected superseded token to fail, got %v", err)
	}

	mine, _ := svc.ListMyPolls(alice)
	if len(mine) != 1 {
		t.Fatalf("expected exactly one poll, got %d", len(mine))
	}
}

func TestTokenBoundToSession(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc

	stolen := issue(t, svc, as("alice", "sess-alice"))
	if _, _, err := svc.CreatePoll(as("mallory", "sess-mallory"), "Q", []string{"a", "b"}, stolen); KindOf(err) != KindToken {
		t.Fatalf("expected token error for foreign session, got %v", err)
	}
}

func TestNonOwnerCannotMutate(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc
	alice := as("alice", "sess-alice")
	bob := as("bob", "sess-bob")

	p, _, err := svc.CreatePoll(alice, "Q", []string{"a", "b"}, issue(t, svc, alice))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, next, err := svc.UpdatePoll(bob, p.ID, "hijacked", []string{"x", "y"}, issue(t, svc, bob))
	if !errors.Is(err, poll.ErrForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if next == "" {
		t.Fatalf("expected rotated token after failed operation")
	}
	if _, err := svc.DeletePoll(bob, p.ID, next); !errors.Is(err, poll.ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}

	got, err := svc.GetPoll(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Question != "Q" || got.Options[0] != "a" {
		t.Fatalf("poll mutated by non-owner: %+v", got)
	}

	if _, _, err := svc.UpdatePoll(alice, p.ID, "Q", []string{"a", "b", "c"}, issue(t, svc, alice)); !errors.Is(err, validation.ErrOptionCountChanged) {
		t.Fatalf("expected option count error, got %v", err)
	}
	updated, _, err := svc.UpdatePoll(alice, p.ID, "Q!", []string{"a", "c"}, issue(t, svc, alice))
	if err != nil || updated.Question != "Q!" {
		t.Fatalf("owner update: %v %+v", err, updated)
	}

	if _, err := svc.DeletePoll(alice, p.ID, issue(t, svc, alice)); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.GetPoll(context.Background(), p.ID); KindOf(err) != KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMutationsRequireIdentity(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc
	anon := as("", "sess-anon")
	token := issue(t, svc, anon)

	if _, _, err := svc.CreatePoll(anon, "Q", []string{"a", "b"}, token); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	if _, err := svc.ListMyPolls(anon); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	if _, err := svc.IssueToken(context.Background()); !errors.Is(err, identity.ErrNotAuthenticated) {
		t.Fatalf("expected no token without a session, got %v", err)
	}
}

func TestAnonymousVotingPolicy(t *testing.T) {
	for _, allow := range []bool{false, true} {
		f := setupService(t, allow)
		svc := f.svc
		alice := as("alice", "sess-alice")
		p, _, err := svc.CreatePoll(alice, "Q", []string{"a", "b"}, issue(t, svc, alice))
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		anon := as("", "sess-anon")
		token := issue(t, svc, anon)
		v, next, err := svc.CastVote(anon, p.ID, 0, token)
		if !allow {
			if !errors.Is(err, identity.ErrNotAuthenticated) {
				t.Fatalf("expected anonymous vote to be rejected, got %v", err)
			}
			continue
		}
		if err != nil || v.VoterID != nil {
			t.Fatalf("anonymous vote: %v %+v", err, v)
		}
		if _, _, err := svc.CastVote(anon, p.ID, 1, next); err != nil {
			t.Fatalf("second anonymous vote: %v", err)
		}
		if _, _, err := svc.CastVote(anon, p.ID, 7, issue(t, svc, anon)); !errors.Is(err, validation.ErrInvalidOption) {
			t.Fatalf("expected range check for anonymous vote, got %v", err)
		}
	}
}

func TestValidationHappensAfterTokenCheck(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc
	alice := as("alice", "sess-alice")

	if _, _, err := svc.CreatePoll(alice, "", []string{"a", "b"}, "bogus"); KindOf(err) != KindToken {
		t.Fatalf("expected token failure first, got %v", err)
	}
	_, _, err := svc.CreatePoll(alice, "", []string{"a", "b"}, issue(t, svc, alice))
	if !errors.Is(err, validation.ErrEmptyQuestion) || KindOf(err) != KindValidation {
		t.Fatalf("expected empty question, got %v", err)
	}
}

func TestStoreFailureIsPersistenceError(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc
	alice := as("alice", "sess-alice")
	token := issue(t, svc, alice)

	_ = f.db.Close()

	_, next, err := svc.CreatePoll(alice, "Q", []string{"a", "b"}, token)
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Op != "create_poll" {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if KindOf(err) != KindPersistence {
		t.Fatalf("expected persistence kind")
	}
	if pe.Error() != "create_poll: persistence failure" {
		t.Fatalf("persistence error leaks detail: %q", pe.Error())
	}
	if next == "" {
		t.Fatalf("expected a token even when the store fails")
	}

	if _, err := svc.GetResults(context.Background(), "11111111-2222-3333-4444-555555555555"); !errors.As(err, &pe) {
		t.Fatalf("expected persistence error from results, got %v", err)
	}
}

func TestTokenRotatesAfterOperationTimesOut(t *testing.T) {
	f := setupService(t, false)
	svc := f.svc
	svc.opts.Timeout = 20 * time.Millisecond
	alice := as("alice", "sess-alice")
	token := issue(t, svc, alice)

	next, err := svc.guarded(alice, "slow_op", "sess-alice", token, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if KindOf(err) != KindPersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if next == "" {
		t.Fatalf("expected a replacement token after the deadline passed")
	}

	svc.opts.Timeout = DefaultTimeout
	if _, _, err := svc.CreatePoll(alice, "Q", []string{"a", "b"}, next); err != nil {
		t.Fatalf("replacement token rejected: %v", err)
	}
}
