package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pollguard/internal/validation"
)

var (
	ErrPollNotFound = errors.New("poll not found")
	ErrForbidden    = errors.New("caller does not own poll")
)

// Authorize is the single ownership predicate for poll mutations.
func Authorize(p *Poll, callerID string) error {
	if p == nil {
		return ErrPollNotFound
	}
	if callerID == "" || p.OwnerID != callerID {
		return ErrForbidden
	}
	return nil
}

type Store struct {
	repo  Repository
	votes VoteRemover
	tx    TxRunner
	now   func() time.Time
}

func NewStore(repo Repository, votes VoteRemover, tx TxRunner) *Store {
	return &Store{
		repo:  repo,
		votes: votes,
		tx:    tx,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Create(ctx context.Context, ownerID, question string, options []string) (*Poll, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}
	in, err := validation.PollInput(question, options)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &Poll{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Question:  in.Question,
		Options:   in.Options,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Poll, error) {
	if err := validation.OwnershipID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]Poll, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Update replaces the question and option texts. The number of options is
// fixed at creation so recorded option indexes stay meaningful.
func (s *Store) Update(ctx context.Context, id, callerID, question string, options []string) (*Poll, error) {
	if err := validation.OwnershipID(id); err != nil {
		return nil, err
	}
	in, err := validation.PollInput(question, options)
	if err != nil {
		return nil, err
	}

	var updated *Poll
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(p, callerID); err != nil {
			return err
		}
		if len(in.Options) != len(p.Options) {
			return validation.ErrOptionCountChanged
		}

		p.Question = in.Question
		p.Options = in.Options
		p.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the poll and its votes as one unit. When the votes cannot be
// removed the poll is left untouched.
func (s *Store) Delete(ctx context.Context, id, callerID string) error {
	if err := validation.OwnershipID(id); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := Authorize(p, callerID); err != nil {
			return err
		}
		if err := s.votes.DeleteByPoll(ctx, id); err != nil {
			return fmt.Errorf("delete votes of poll %s: %w", id, err)
		}
		return s.repo.Delete(ctx, id, callerID)
	})
}
