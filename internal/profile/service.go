package profile

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/oklog/ulid/v2"
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

// アバターの制限（original の multer 設定に合わせる）
const MaxAvatarBytes = 2 << 20 // 2 MB

// ===== IDGen =====

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service =====

type Service struct {
	store      ProfileStore
	uploadsDir string
	id         IDGen
}

func NewService(conn *sql.DB, uploadsDir string) *Service {
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	return &Service{store: NewStore(conn), uploadsDir: uploadsDir, id: ulidGen{}}
}

// GET /profile
func (s *Service) Get(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound("user not found")
	}
	return p, nil
}

// PUT /profile
// name / email はストレージ境界で NFC 正規化 + trim
func (s *Service) Update(ctx context.Context, userID int64, name, email string) (*Profile, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	email = norm.NFC.String(strings.TrimSpace(email))
	if name == "" {
		return nil, ErrInvalid("Name is required")
	}
	if email == "" {
		return nil, ErrInvalid("Email is required")
	}

	if err := s.store.UpdateNameEmail(ctx, userID, name, email); err != nil {
		// 1062: Duplicate entry（email UNIQUE）
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil, ErrConflict("Email already in use. Choose another one.")
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

// POST /profile/avatar
// 画像をローカルの uploads ディレクトリに ULID 名で保存し、
// /uploads/<name> を avatar_url として記録する。
func (s *Service) SaveAvatar(ctx context.Context, userID int64, origName, contentType string, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrInvalid("Only images allowed")
	}

	name, err := s.id.New()
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(origName))
	if ext == "" {
		ext = ".png"
	}
	fileName := name + ext

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(s.uploadsDir, fileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// +1 で上限超過を検出する
	n, err := io.Copy(dst, io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	if n > MaxAvatarBytes {
		os.Remove(dst.Name())
		return "", ErrInvalid("avatar exceeds 2 MB limit")
	}

	url := "/uploads/" + fileName
	if err := s.store.UpdateAvatarURL(ctx, userID, url); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return url, nil
}
