package vote

import (
	"context"
	"time"

	"pollguard/internal/domain/poll"
)

type Vote struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	VoterID     *string   `json:"voter_id,omitempty"`
	OptionIndex int       `json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository interface {
	// Insert stores v unless a vote with the same non-null voter already
	// exists for the poll, in which case it returns ErrDuplicateVote. The
	// check and the write are one statement.
	Insert(ctx context.Context, v *Vote) error
	Exists(ctx context.Context, pollID, voterID string) (bool, error)
	CountByPoll(ctx context.Context, pollID string) (map[int]int64, error)
	DeleteByPoll(ctx context.Context, pollID string) error
}

// PollReader is the read-only view of polls the ledger needs.
type PollReader interface {
	GetByID(ctx context.Context, id string) (*poll.Poll, error)
}
