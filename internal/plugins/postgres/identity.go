package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ghostsignal/internal/core/domain"
)

type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

func (r *IdentityRepo) CreateUser(ctx context.Context, user domain.User, secretHash string) error {
	exec := GetExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx, `
		INSERT INTO users (id, nickname, secret_hash, is_anonymous, role, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (nickname) DO NOTHING
	`, user.ID, user.Nickname, secretHash, user.IsAnonymous, user.Role, user.JoinedAt)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrDuplicateIdentity
	}
	return nil
}

func (r *IdentityRepo) LookupNickname(ctx context.Context, nickname string) (*domain.User, string, error) {
	exec := GetExecutor(ctx, r.db)
	var user domain.User
	var hash string
	err := exec.QueryRowContext(ctx, `
		SELECT id, nickname, is_anonymous, role, joined_at, secret_hash
		FROM users WHERE nickname = $1
	`, nickname).Scan(&user.ID, &user.Nickname, &user.IsAnonymous, &user.Role, &user.JoinedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.ErrIdentityNotFound
		}
		return nil, "", err
	}
	return &user, hash, nil
}

func (r *IdentityRepo) RemoveUser(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

func (r *IdentityRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, nickname, is_anonymous, role, joined_at
		FROM users ORDER BY joined_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Nickname, &u.IsAnonymous, &u.Role, &u.JoinedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *IdentityRepo) CountUsers(ctx context.Context) (int, error) {
	exec := GetExecutor(ctx, r.db)
	var n int
	if err := exec.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
