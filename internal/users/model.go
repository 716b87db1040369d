package users

import "time"

// DB行に対応（スキャン用）
type userRow struct {
	ID           int64
	Name         string
	Email        string
	Role         string
	Active       int
	Permissions  []byte // JSON: 配列 or 旧形式の map
	AvatarURL    *string
	CreatedAt    time.Time
}

// User は password_hash を含まない公開ビュー
type User struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        string        `json:"role"`
	Active      bool          `json:"active"`
	Permissions PermissionSet `json:"permissions"`
	AvatarURL   *string       `json:"avatarUrl"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func (r userRow) toModel() User {
	return User{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Role:        r.Role,
		Active:      r.Active != 0,
		Permissions: NormalizePermissions(r.Permissions),
		AvatarURL:   r.AvatarURL,
		CreatedAt:   r.CreatedAt,
	}
}

type CreateHeadRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdatePermissionsRequest struct {
	// 配列形式でも {"cap": true} 形式でも受ける（境界で正規化）
	Permissions PermissionSet `json:"permissions"`
}
