package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"shopd/internal/domain/user"
)

func (s *Store) Insert(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (id, name, email, password_hash, roles, token_version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash,
		pq.Array(u.Roles), u.TokenVersion, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.findUser(ctx, `WHERE id = $1`, id)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findUser(ctx, `WHERE email = $1`, strings.ToLower(email))
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (*user.User, error) {
	query := `SELECT id, name, email, password_hash, roles, token_version, created_at, updated_at
	          FROM users ` + where

	var u user.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		pq.Array(&u.Roles), &u.TokenVersion, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (s *Store) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET token_version = token_version + 1, updated_at = NOW()
		 WHERE id = $1 RETURNING token_version`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, user.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("bump token version: %w", err)
	}
	return version, nil
}
