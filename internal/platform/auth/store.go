package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"EMS-backend/internal/users"
)

type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	Permissions  users.PermissionSet
	AvatarURL    *string
	CreatedAt    time.Time
}

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, a *Account) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const q = `
SELECT id, name, email, password_hash, role, active, permissions, avatar_url, created_at
FROM users
WHERE email = ?
LIMIT 1
`
	var (
		a         Account
		activeInt int
		rawPerms  []byte
	)
	err := s.db.QueryRowContext(ctx, q, email).Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Role,
		&activeInt,
		&rawPerms,
		&a.AvatarURL,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Active = activeInt != 0
	a.Permissions = users.NormalizePermissions(rawPerms)
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) (int64, error) {
	const q = `
INSERT INTO users (name, email, password_hash, role, active, permissions, created_at)
VALUES (?, ?, ?, ?, 1, ?, NOW(6))
`
	perms, err := a.Permissions.MarshalJSON()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, q, a.Name, a.Email, a.PasswordHash, a.Role, perms)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
