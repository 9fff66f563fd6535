package sqlrepo

import (
	"context"
	"database/sql"
	"errors"

	"pollguard/internal/domain/poll"
	"pollguard/internal/domain/vote"
	"pollguard/internal/platform/database"
)

type VoteRepo struct {
	db *sql.DB
}

func NewVoteRepo(db *sql.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

// Insert relies on UNIQUE (poll_id, voter_id): a second vote by the same
// voter inserts nothing and returns no row. A poll deleted after the caller
// read it surfaces as poll.ErrPollNotFound through the foreign key.
func (r *VoteRepo) Insert(ctx context.Context, v *vote.Vote) error {
	var id string
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
        INSERT INTO votes (id, poll_id, voter_id, option_index, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (poll_id, voter_id) DO NOTHING
        RETURNING id
    `, v.ID, v.PollID, v.VoterID, v.OptionIndex, v.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return vote.ErrDuplicateVote
	}
	if err != nil {
		if isUniqueViolation(err) {
			return vote.ErrDuplicateVote
		}
		if isForeignKeyViolation(err) {
			return poll.ErrPollNotFound
		}
		return err
	}
	return nil
}

func (r *VoteRepo) Exists(ctx context.Context, pollID, voterID string) (bool, error) {
	var exists bool
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, `
        SELECT EXISTS (SELECT 1 FROM votes WHERE poll_id = $1 AND voter_id = $2)
    `, pollID, voterID).Scan(&exists)
	return exists, err
}

func (r *VoteRepo) CountByPoll(ctx context.Context, pollID string) (map[int]int64, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
        SELECT option_index, COUNT(*)
        FROM votes
        WHERE poll_id = $1
        GROUP BY option_index
    `, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[int]int64)
	for rows.Next() {
		var idx int
		var c int64
		if err := rows.Scan(&idx, &c); err != nil {
			return nil, err
		}
		res[idx] = c
	}
	return res, rows.Err()
}

func (r *VoteRepo) DeleteByPoll(ctx context.Context, pollID string) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM votes WHERE poll_id = $1`, pollID)
	return err
}
