package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"EMS-backend/internal/users"
)

type fakeAccounts struct {
	byEmail map[string]*Account
	nextID  int64
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*Account{}, nextID: 1}
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	if a, ok := f.byEmail[email]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeAccounts) Create(_ context.Context, a *Account) (int64, error) {
	id := f.nextID
	f.nextID++
	cp := *a
	cp.ID = id
	f.byEmail[a.Email] = &cp
	return id, nil
}

func newTestAuth(store AccountStore) *Service {
	return &Service{store: store, secret: []byte("test-secret"), expiry: time.Hour}
}

func seedAccount(t *testing.T, f *fakeAccounts, email, password, role string, active bool) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a := &Account{
		Name:         "Seeded",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       active,
		Permissions:  users.NewPermissionSet(users.CapAttendance),
	}
	id, _ := f.Create(context.Background(), a)
	a.ID = id
	f.byEmail[email].Active = active
	return a
}

func TestLoginSuccess(t *testing.T) {
	f := newFakeAccounts()
	seedAccount(t, f, "aoi@example.com", "secret-pass", RoleUser, true)
	svc := newTestAuth(f)

	res, err := svc.Login(context.Background(), "aoi@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected a token")
	}
	if res.Role != RoleUser || res.Email != "aoi@example.com" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !res.Permissions.Has(users.CapAttendance) {
		t.Fatalf("permissions must ride along with login")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFakeAccounts()
	seedAccount(t, f, "aoi@example.com", "secret-pass", RoleUser, true)
	svc := newTestAuth(f)

	if _, err := svc.Login(context.Background(), "aoi@example.com", "wrong"); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuth(newFakeAccounts())

	if _, err := svc.Login(context.Background(), "ghost@example.com", "whatever"); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newFakeAccounts()
	seedAccount(t, f, "ren@example.com", "secret-pass", RoleUser, false)
	svc := newTestAuth(f)

	if _, err := svc.Login(context.Background(), "ren@example.com", "secret-pass"); !errors.Is(err, ErrDeactivated) {
		t.Fatalf("expected ErrDeactivated, got %v", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	f := newFakeAccounts()
	svc := newTestAuth(f)

	acct, err := svc.Register(context.Background(), "Mio", "mio@example.com", "plain-pass", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.Role != RoleUser {
		t.Fatalf("default role must be user, got %q", acct.Role)
	}

	stored := f.byEmail["mio@example.com"]
	if stored.PasswordHash == "plain-pass" {
		t.Fatalf("password must never be stored as plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("plain-pass")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFakeAccounts()
	seedAccount(t, f, "mio@example.com", "x", RoleUser, true)
	svc := newTestAuth(f)

	if _, err := svc.Register(context.Background(), "Mio", "mio@example.com", "y", ""); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestAuth(newFakeAccounts())

	if _, err := svc.Register(context.Background(), "Mio", "mio@example.com", "y", "superadmin"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterTrimsAndNormalizes(t *testing.T) {
	f := newFakeAccounts()
	svc := newTestAuth(f)

	acct, err := svc.Register(context.Background(), "  Mio  ", " mio@example.com ", "pass", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.Name != "Mio" || acct.Email != "mio@example.com" {
		t.Fatalf("input not normalized: %+v", acct)
	}
}
