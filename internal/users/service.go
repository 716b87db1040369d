package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// ===== Error model (attendance と同型) =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type Service struct {
	store UserStore
}

func NewService(conn *sql.DB) *Service {
	return &Service{store: NewStore(conn)}
}

// GET /user/ ・ GET /admin/users
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

// GET /user/permissions/:id
func (s *Service) Permissions(ctx context.Context, id int64) (PermissionSet, error) {
	if id <= 0 {
		return nil, ErrInvalid("invalid user id")
	}
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound("user not found")
	}
	return u.Permissions, nil
}

// POST /admin/create-head
func (s *Service) CreateHead(ctx context.Context, req CreateHeadRequest) (*User, error) {
	name := norm.NFC.String(strings.TrimSpace(req.Name))
	email := norm.NFC.String(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, ErrInvalid("name, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id, err := s.store.CreateHead(ctx, name, email, string(hash))
	if err != nil {
		// 1062: Duplicate entry（email UNIQUE）
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil, ErrConflict("email already in use")
		}
		return nil, err
	}
	return s.store.GetByID(ctx, id)
}

// PUT /admin/users/:id/toggle-active
func (s *Service) ToggleActive(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, ErrInvalid("invalid user id")
	}
	u, err := s.store.ToggleActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound("user not found")
	}
	return u, nil
}

// PUT /admin/users/:id/permissions
func (s *Service) UpdatePermissions(ctx context.Context, id int64, ps PermissionSet) (*User, error) {
	if id <= 0 {
		return nil, ErrInvalid("invalid user id")
	}
	if ps == nil {
		ps = NewPermissionSet()
	}
	u, err := s.store.UpdatePermissions(ctx, id, ps)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound("user not found")
	}
	return u, nil
}
