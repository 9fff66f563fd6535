package sqlrepo

import (
	"context"
	"database/sql"
	"errors"

	"pollguard/internal/domain/poll"
	"pollguard/internal/platform/database"
)

type PollRepo struct {
	db *sql.DB
}

func NewPollRepo(db *sql.DB) *PollRepo {
	return &PollRepo{db: db}
}

func (r *PollRepo) Create(ctx context.Context, p *poll.Poll) error {
	return database.RunInTx(ctx, r.db, func(ctx context.Context) error {
		q := database.Conn(ctx, r.db)
		_, err := q.ExecContext(ctx, `
            INSERT INTO polls (id, owner_id, question, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5)
        `, p.ID, p.OwnerID, p.Question, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return err
		}
		return insertOptions(ctx, q, p.ID, p.Options)
	})
}

func (r *PollRepo) GetByID(ctx context.Context, id string) (*poll.Poll, error) {
	q := database.Conn(ctx, r.db)

	p := &poll.Poll{}
	err := q.QueryRowContext(ctx, `
        SELECT id, owner_id, question, created_at, updated_at
        FROM polls WHERE id = $1
    `, id).Scan(&p.ID, &p.OwnerID, &p.Question, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, poll.ErrPollNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
        SELECT text FROM poll_options
        WHERE poll_id = $1
        ORDER BY position
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		p.Options = append(p.Options, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PollRepo) ListByOwner(ctx context.Context, ownerID string) ([]poll.Poll, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, `
        SELECT p.id, p.owner_id, p.question, p.created_at, p.updated_at, o.text
        FROM polls p
        JOIN poll_options o ON o.poll_id = p.id
        WHERE p.owner_id = $1
        ORDER BY p.created_at DESC, p.id, o.position
    `, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []poll.Poll{}
	for rows.Next() {
		var p poll.Poll
		var text string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Question, &p.CreatedAt, &p.UpdatedAt, &text); err != nil {
			return nil, err
		}
		if n := len(res); n > 0 && res[n-1].ID == p.ID {
			res[n-1].Options = append(res[n-1].Options, text)
			continue
		}
		p.Options = []string{text}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Update only touches the row when owner_id still matches p.OwnerID.
func (r *PollRepo) Update(ctx context.Context, p *poll.Poll) error {
	return database.RunInTx(ctx, r.db, func(ctx context.Context) error {
		q := database.Conn(ctx, r.db)
		res, err := q.ExecContext(ctx, `
            UPDATE polls SET question = $1, updated_at = $2
            WHERE id = $3 AND owner_id = $4
        `, p.Question, p.UpdatedAt, p.ID, p.OwnerID)
		if err != nil {
			return err
		}
		if err := ownedRowAffected(ctx, q, res, p.ID); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM poll_options WHERE poll_id = $1`, p.ID); err != nil {
			return err
		}
		return insertOptions(ctx, q, p.ID, p.Options)
	})
}

func (r *PollRepo) Delete(ctx context.Context, id, ownerID string) error {
	return database.RunInTx(ctx, r.db, func(ctx context.Context) error {
		q := database.Conn(ctx, r.db)
		if _, err := q.ExecContext(ctx, `
            DELETE FROM poll_options
            WHERE poll_id = (SELECT id FROM polls WHERE id = $1 AND owner_id = $2)
        `, id, ownerID); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, `DELETE FROM polls WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return err
		}
		return ownedRowAffected(ctx, q, res, id)
	})
}

func insertOptions(ctx context.Context, q database.Querier, pollID string, options []string) error {
	for i, text := range options {
		if _, err := q.ExecContext(ctx, `
            INSERT INTO poll_options (poll_id, position, text)
            VALUES ($1, $2, $3)
        `, pollID, i, text); err != nil {
			return err
		}
	}
	return nil
}

// ownedRowAffected tells a missing poll apart from one owned by someone else
// when an owner-scoped statement matched nothing.
func ownedRowAffected(ctx context.Context, q database.Querier, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var owner string
	err = q.QueryRowContext(ctx, `SELECT owner_id FROM polls WHERE id = $1`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return poll.ErrPollNotFound
	}
	if err != nil {
		return err
	}
	return poll.ErrForbidden
}
