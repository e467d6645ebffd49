package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, username string) (User, error) {
	const query = `
SELECT username, password_hash, two_factor_enabled, two_factor_secret, created_at, updated_at
FROM users
WHERE username = $1
LIMIT 1`
	var user User
	var secret sql.NullString
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, username).Scan(
		&user.Username,
		&user.PasswordHash,
		&user.TwoFactorEnabled,
		&secret,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if secret.Valid {
		user.TwoFactorSecret = secret.String
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = time.Now().UTC()
	}
	return user, nil
}

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (username, password_hash, two_factor_enabled, two_factor_secret, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (username) DO NOTHING`
	res, err := r.DB.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.TwoFactorEnabled,
		nullableString(user.TwoFactorSecret),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDuplicateUsername
	}
	return nil
}

func (r *PGRepo) Put(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (username, password_hash, two_factor_enabled, two_factor_secret, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (username) DO UPDATE SET
  password_hash = EXCLUDED.password_hash,
  two_factor_enabled = EXCLUDED.two_factor_enabled,
  two_factor_secret = EXCLUDED.two_factor_secret,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.TwoFactorEnabled,
		nullableString(user.TwoFactorSecret),
	)
	return err
}

func (r *PGRepo) Exists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
