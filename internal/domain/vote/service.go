package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pollguard/internal/domain/poll"
	"pollguard/internal/validation"
)

var ErrDuplicateVote = errors.New("voter already voted in this poll")

type Ledger struct {
	repo  Repository
	polls PollReader
	now   func() time.Time
}

func NewLedger(repo Repository, polls PollReader) *Ledger {
	return &Ledger{
		repo:  repo,
		polls: polls,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (l *Ledger) HasVoted(ctx context.Context, pollID, voterID string) (bool, error) {
	if voterID == "" {
		return false, nil
	}
	return l.repo.Exists(ctx, pollID, voterID)
}

// Record stores a vote. A nil voterID records an anonymous vote.
func (l *Ledger) Record(ctx context.Context, pollID string, voterID *string, optionIndex int) (*Vote, error) {
	if err := validation.OwnershipID(pollID); err != nil {
		return nil, err
	}
	p, err := l.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := validation.VoteInput(pollID, optionIndex, len(p.Options)); err != nil {
		return nil, err
	}

	if voterID != nil {
		// Fast path only; Insert is what holds under concurrency.
		voted, err := l.HasVoted(ctx, p.ID, *voterID)
		if err != nil {
			return nil, fmt.Errorf("check existing vote: %w", err)
		}
		if voted {
			return nil, ErrDuplicateVote
		}
	}

	v := &Vote{
		ID:          uuid.NewString(),
		PollID:      p.ID,
		VoterID:     voterID,
		OptionIndex: optionIndex,
		CreatedAt:   l.now(),
	}
	if err := l.repo.Insert(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

type Result struct {
	OptionIndex int     `json:"option_index"`
	Text        string  `json:"text"`
	Votes       int64   `json:"votes"`
	Percentage  float64 `json:"percentage"`
}

type Tally struct {
	PollID  string        `json:"poll_id"`
	Counts  map[int]int64 `json:"-"`
	Total   int64         `json:"total_votes"`
	Options []Result      `json:"options"`
}

// Tally counts votes per option straight from the ledger. Options without
// votes are reported with zero.
func (l *Ledger) Tally(ctx context.Context, pollID string) (*Tally, error) {
	if err := validation.OwnershipID(pollID); err != nil {
		return nil, err
	}
	p, err := l.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	counts, err := l.repo.CountByPoll(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}

	t := &Tally{
		PollID:  p.ID,
		Counts:  make(map[int]int64, len(p.Options)),
		Options: make([]Result, len(p.Options)),
	}
	for i := range p.Options {
		c := counts[i]
		t.Counts[i] = c
		t.Total += c
	}
	for i, text := range p.Options {
		var pct float64
		if t.Total > 0 {
			pct = float64(t.Counts[i]) * 100.0 / float64(t.Total)
		}
		t.Options[i] = Result{
			OptionIndex: i,
			Text:        text,
			Votes:       t.Counts[i],
			Percentage:  pct,
		}
	}
	return t, nil
}

func (l *Ledger) DeleteByPoll(ctx context.Context, pollID string) error {
	return l.repo.DeleteByPoll(ctx, pollID)
}

var _ poll.VoteRemover = (*Ledger)(nil)
