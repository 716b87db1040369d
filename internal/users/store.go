package users

import (
	"context"
	"database/sql"
	"errors"

	"EMS-backend/internal/platform/db"
)

type UserStore interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	CreateHead(ctx context.Context, name, email, passwordHash string) (int64, error)
	ToggleActive(ctx context.Context, id int64) (*User, error)
	UpdatePermissions(ctx context.Context, id int64, ps PermissionSet) (*User, error)
}

type Store struct{ conn *sql.DB }

func NewStore(conn *sql.DB) UserStore { return &Store{conn: conn} }

const userCols = `id, name, email, role, active, permissions, avatar_url, created_at`

func scanUser(row *sql.Row) (*User, error) {
	var r userRow
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Role, &r.Active, &r.Permissions, &r.AvatarURL, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u := r.toModel()
	return &u, nil
}

// List: id 降順（新しいユーザが先）
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.conn.QueryContext(ctx, `
	SELECT `+userCols+`
	FROM users
	ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		var r userRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Role, &r.Active, &r.Permissions, &r.AvatarURL, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r.toModel())
	}
	return out, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	row := s.conn.QueryRowContext(ctx, `
	SELECT `+userCols+`
	FROM users
	WHERE id = ?
	LIMIT 1`, id)
	return scanUser(row)
}

func (s *Store) CreateHead(ctx context.Context, name, email, passwordHash string) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
	INSERT INTO users (name, email, password_hash, role, active, permissions, created_at)
	VALUES (?, ?, ?, 'head', 1, '[]', NOW(6))`, name, email, passwordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ToggleActive: 現在値の読み出しと反転をトランザクションで行う
func (s *Store) ToggleActive(ctx context.Context, id int64) (*User, error) {
	var out *User
	err := db.RunInTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		var active int
		err := tx.QueryRowContext(ctx, `SELECT active FROM users WHERE id = ? FOR UPDATE`, id).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) {
			return nil // out == nil → NotFound は service 側で判定
		}
		if err != nil {
			return err
		}

		next := 1
		if active != 0 {
			next = 0
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ?`, next, id); err != nil {
			return err
		}

		var r userRow
		if err := tx.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id).
			Scan(&r.ID, &r.Name, &r.Email, &r.Role, &r.Active, &r.Permissions, &r.AvatarURL, &r.CreatedAt); err != nil {
			return err
		}
		u := r.toModel()
		out = &u
		return nil
	})
	return out, err
}

func (s *Store) UpdatePermissions(ctx context.Context, id int64, ps PermissionSet) (*User, error) {
	raw, err := ps.MarshalJSON()
	if err != nil {
		return nil, err
	}
	res, err := s.conn.ExecContext(ctx, `UPDATE users SET permissions = ? WHERE id = ?`, raw, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// 変更なしの可能性もあるので存在確認に回す
		u, err := s.GetByID(ctx, id)
		if err != nil || u == nil {
			return u, err
		}
		return u, nil
	}
	return s.GetByID(ctx, id)
}
