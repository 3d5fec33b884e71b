package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
)

// PostgresUserRepo manages plan owners. Only seeding and tests write users;
// the redemption flow reads owners through the plan registry join.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, name, email, telegram_chat_id, registered_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  email = EXCLUDED.email,
  telegram_chat_id = EXCLUDED.telegram_chat_id;
`
	if _, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Name, u.Email, u.TelegramChatID, u.RegisteredAt); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT id, name, email, telegram_chat_id, registered_at FROM users WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.TelegramChatID, &u.RegisteredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
