package auth

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"EMS-backend/internal/users"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrDeactivated   = errors.New("account deactivated")
	ErrInvalidInput  = errors.New("invalid input")
)

type LoginResult struct {
	Token       string
	UserID      int64
	Name        string
	Email       string
	Role        string
	Permissions users.PermissionSet
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, name, email, password, role string) (*Account, error)
}

type Service struct {
	store  AccountStore
	secret []byte
	expiry time.Duration
}

func NewService(db *sql.DB, secret []byte, expiry time.Duration) *Service {
	return &Service{store: NewStore(db), secret: secret, expiry: expiry}
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	acct, err := s.store.GetByEmail(ctx, normEmail(email))
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAuthFailed
	}
	if !acct.Active {
		return nil, ErrDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrAuthFailed
	}

	token, err := s.IssueToken(acct.ID, acct.Email, acct.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:       token,
		UserID:      acct.ID,
		Name:        acct.Name,
		Email:       acct.Email,
		Role:        acct.Role,
		Permissions: acct.Permissions,
	}, nil
}

func (s *Service) Register(ctx context.Context, name, email, password, role string) (*Account, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	email = normEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if role == "" {
		role = RoleUser
	}
	if role != RoleUser && role != RoleHead {
		return nil, ErrInvalidInput
	}

	exists, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return nil, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acct := &Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		Permissions:  users.NewPermissionSet(),
	}
	id, err := s.store.Create(ctx, acct)
	if err != nil {
		return nil, err
	}
	acct.ID = id
	return acct, nil
}

// IssueToken は {sub, email, role} を載せた HS256 トークンを発行する。
func (s *Service) IssueToken(userID int64, email, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(userID, 10),
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(s.expiry).Unix(),
	})
	return token.SignedString(s.secret)
}

// メールは NFC 正規化 + trim をストレージ境界で一度だけ行う
func normEmail(email string) string {
	return norm.NFC.String(strings.TrimSpace(email))
}
