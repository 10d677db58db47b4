package repository

import (
	"context"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/bookshare/server/internal/auth/domain"
)

type Repository interface {
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	SetLoggedOut(ctx context.Context, username string, loggedOut bool) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT username, password, logged_out FROM users WHERE username = $1`,
		username,
	)

	var user domain.User
	if err := row.Scan(&user.Username, &user.Password, &user.LoggedOut); err != nil {
		return domain.User{}, err
	}

	return user, nil
}

func (r *PgRepository) SetLoggedOut(ctx context.Context, username string, loggedOut bool) error {
	ct, err := r.pool.Exec(
		ctx,
		`UPDATE users SET logged_out = $2 WHERE username = $1`,
		username,
		loggedOut,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

var ErrUserNotFound = pgx.ErrNoRows
