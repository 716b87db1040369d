package profile

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"EMS-backend/internal/users"
)

// Profile は本人に返すビュー（original の /profile レスポンス形）
type Profile struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Role        string              `json:"role"`
	Active      bool                `json:"active"`
	Permissions users.PermissionSet `json:"permissions"`
	CreatedAt   time.Time           `json:"createdAt"`
	AvatarURL   *string             `json:"avatarUrl"`
}

type ProfileStore interface {
	GetByID(ctx context.Context, id int64) (*Profile, error)
	UpdateNameEmail(ctx context.Context, id int64, name, email string) error
	UpdateAvatarURL(ctx context.Context, id int64, url string) error
}

type Store struct{ conn *sql.DB }

func NewStore(conn *sql.DB) ProfileStore { return &Store{conn: conn} }

func (s *Store) GetByID(ctx context.Context, id int64) (*Profile, error) {
	var (
		p         Profile
		activeInt int
		rawPerms  []byte
	)
	err := s.conn.QueryRowContext(ctx, `
	SELECT name, email, role, active, permissions, created_at, avatar_url
	FROM users
	WHERE id = ?
	LIMIT 1`, id).Scan(&p.Name, &p.Email, &p.Role, &activeInt, &rawPerms, &p.CreatedAt, &p.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Active = activeInt != 0
	p.Permissions = users.NormalizePermissions(rawPerms)
	return &p, nil
}

func (s *Store) UpdateNameEmail(ctx context.Context, id int64, name, email string) error {
	_, err := s.conn.ExecContext(ctx, `
	UPDATE users SET name = ?, email = ? WHERE id = ?`, name, email, id)
	return err
}

func (s *Store) UpdateAvatarURL(ctx context.Context, id int64, url string) error {
	_, err := s.conn.ExecContext(ctx, `
	UPDATE users SET avatar_url = ? WHERE id = ?`, url, id)
	return err
}
