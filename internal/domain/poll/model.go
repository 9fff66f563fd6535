package poll

import (
	"context"
	"time"
)

type Poll struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository persists polls. Update and Delete match on both id and owner so
// ownership holds even for callers that skip the Store.
type Repository interface {
	Create(ctx context.Context, p *Poll) error
	GetByID(ctx context.Context, id string) (*Poll, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Poll, error)
	Update(ctx context.Context, p *Poll) error
	Delete(ctx context.Context, id, ownerID string) error
}

// VoteRemover drops every vote of a poll ahead of the poll itself.
type VoteRemover interface {
	DeleteByPoll(ctx context.Context, pollID string) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
