// Package polling is the caller-facing surface for polls and votes. Every
// state change is bound to a single-use anti-forgery token for the caller's
// session and hands back the next token to use.
package polling

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pollguard/internal/csrf"
	"pollguard/internal/domain/poll"
	"pollguard/internal/domain/vote"
	"pollguard/internal/identity"
	"pollguard/internal/metrics"
)

const (
	DefaultTimeout = 5 * time.Second

	rotateTimeout = 2 * time.Second
)

type Options struct {
	AllowAnonymousVotes bool
	Timeout             time.Duration
}

type Service struct {
	ids    identity.Gateway
	tokens *csrf.Manager
	polls  *poll.Store
	votes  *vote.Ledger
	log    *slog.Logger
	opts   Options
}

func NewService(
	ids identity.Gateway,
	tokens *csrf.Manager,
	polls *poll.Store,
	votes *vote.Ledger,
	log *slog.Logger,
	opts Options,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Service{
		ids:    ids,
		tokens: tokens,
		polls:  polls,
		votes:  votes,
		log:    log,
		opts:   opts,
	}
}

// IssueToken hands out the token a form must present on submit.
func (s *Service) IssueToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	scope := s.ids.CurrentIdentity(ctx).Session
	if scope == "" {
		return "", identity.ErrNotAuthenticated
	}
	token, err := s.tokens.Issue(ctx, scope)
	if err != nil {
		return "", s.fail("issue_token", err)
	}
	return token, nil
}

func (s *Service) CreatePoll(ctx context.Context, question string, options []string, token string) (*poll.Poll, string, error) {
	id, err := s.ids.RequireIdentity(ctx)
	if err != nil {
		return nil, "", err
	}

	var created *poll.Poll
	next, err := s.guarded(ctx, "create_poll", id.Session, token, func(ctx context.Context) error {
		p, err := s.polls.Create(ctx, id.UserID, question, options)
		created = p
		return err
	})
	if err != nil {
		return nil, next, err
	}
	s.log.Info("poll created", "poll_id", created.ID, "owner_id", created.OwnerID)
	return created, next, nil
}

func (s *Service) UpdatePoll(ctx context.Context, pollID, question string, options []string, token string) (*poll.Poll, string, error) {
	id, err := s.ids.RequireIdentity(ctx)
	if err != nil {
		return nil, "", err
	}

	var updated *poll.Poll
	next, err := s.guarded(ctx, "update_poll", id.Session, token, func(ctx context.Context) error {
		p, err := s.polls.Update(ctx, pollID, id.UserID, question, options)
		updated = p
		return err
	})
	if err != nil {
		return nil, next, err
	}
	return updated, next, nil
}

func (s *Service) DeletePoll(ctx context.Context, pollID, token string) (string, error) {
	id, err := s.ids.RequireIdentity(ctx)
	if err != nil {
		return "", err
	}

	next, err := s.guarded(ctx, "delete_poll", id.Session, token, func(ctx context.Context) error {
		return s.polls.Delete(ctx, pollID, id.UserID)
	})
	if err != nil {
		return next, err
	}
	s.log.Info("poll deleted", "poll_id", pollID, "owner_id", id.UserID)
	return next, nil
}

// CastVote records one vote. Anonymous callers are let through only when
// anonymous voting is enabled; their votes carry no voter id.
func (s *Service) CastVote(ctx context.Context, pollID string, optionIndex int, token string) (*vote.Vote, string, error) {
	id := s.ids.CurrentIdentity(ctx)
	if id.Anonymous() && !s.opts.AllowAnonymousVotes {
		return nil, "", identity.ErrNotAuthenticated
	}

	var recorded *vote.Vote
	next, err := s.guarded(ctx, "cast_vote", id.Session, token, func(ctx context.Context) error {
		v, err := s.votes.Record(ctx, pollID, id.VoterID(), optionIndex)
		recorded = v
		return err
	})
	if err != nil {
		return nil, next, err
	}
	metrics.IncVote()
	return recorded, next, nil
}

func (s *Service) GetPoll(ctx context.Context, pollID string) (*poll.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, s.classify("get_poll", err)
	}
	return p, nil
}

func (s *Service) ListMyPolls(ctx context.Context) ([]poll.Poll, error) {
	id, err := s.ids.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	polls, err := s.polls.ListByOwner(ctx, id.UserID)
	if err != nil {
		return nil, s.classify("list_polls", err)
	}
	return polls, nil
}

// GetResults recomputes the tally from the vote ledger on every call.
func (s *Service) GetResults(ctx context.Context, pollID string) (*vote.Tally, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	t, err := s.votes.Tally(ctx, pollID)
	if err != nil {
		return nil, s.classify("get_results", err)
	}
	return t, nil
}

// guarded verifies token for scope, runs fn and rotates the token. The token
// is rotated after every definitive verification outcome, so a failed attempt
// still leaves the caller with exactly one usable token.
func (s *Service) guarded(parent context.Context, op, scope, token string, fn func(ctx context.Context) error) (string, error) {
	ctx, cancel := context.WithTimeout(parent, s.opts.Timeout)
	defer cancel()

	if err := s.tokens.Verify(ctx, scope, token); err != nil {
		if KindOf(err) != KindToken {
			return "", s.fail(op, err)
		}
		metrics.IncTokenFailure(op)
		s.log.Warn("anti-forgery check failed", "op", op, "err", err)
		return s.rotate(parent, op, scope), err
	}

	opErr := fn(ctx)
	next := s.rotate(parent, op, scope)
	if opErr != nil {
		return next, s.classify(op, opErr)
	}
	return next, nil
}

// rotate runs on its own deadline so that an operation which used up its
// budget still hands out a replacement for the consumed token.
func (s *Service) rotate(parent context.Context, op, scope string) string {
	if scope == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), rotateTimeout)
	defer cancel()

	next, err := s.tokens.Rotate(ctx, scope)
	if err != nil {
		s.log.Error("rotate anti-forgery token", "op", op, "err", err)
		return ""
	}
	return next
}

func (s *Service) classify(op string, err error) error {
	if KindOf(err) != KindPersistence {
		return err
	}
	return s.fail(op, err)
}

func (s *Service) fail(op string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	s.log.Error("persistence failure", "op", op, "err", err)
	return &PersistenceError{Op: op, Err: err}
}
