package attendance

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"
)

// ===== test doubles =====

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// fakeStore は MySQL 側の upsert 意味論（COALESCE / OR / UNIQUEキー）を
// メモリ上で再現する
type fakeStore struct {
	nextID int64
	byKey  map[string]*Attendance
	users  map[int64]AdminUser
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1, byKey: map[string]*Attendance{}, users: map[int64]AdminUser{}}
}

func key(userID int64, date string) string { return fmt.Sprintf("%d|%s", userID, date) }

func (f *fakeStore) GetByUserDate(_ context.Context, userID int64, date string) (*Attendance, error) {
	if a, ok := f.byKey[key(userID, date)]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*Attendance, error) {
	for _, a := range f.byKey {
		if a.AttendanceID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Upsert(_ context.Context, userID int64, date string, p Patch) (Attendance, bool, error) {
	k := key(userID, date)
	base, existed := f.byKey[k]
	merged := applyPatch(base, p)
	if !existed {
		merged.AttendanceID = f.nextID
		f.nextID++
		merged.UserID = userID
		merged.AttendedOn = date
	}
	f.byKey[k] = &merged
	cp := merged
	return cp, !existed, nil
}

func (f *fakeStore) UpdateByID(_ context.Context, id int64, p Patch) (Attendance, error) {
	for k, a := range f.byKey {
		if a.AttendanceID == id {
			merged := applyPatch(a, p)
			f.byKey[k] = &merged
			cp := merged
			return cp, nil
		}
	}
	return Attendance{}, ErrNotFound("attendance record not found")
}

func (f *fakeStore) ListByDate(_ context.Context, date string) ([]AdminEntry, error) {
	var out []AdminEntry
	for _, a := range f.byKey {
		if a.AttendedOn != date {
			continue
		}
		u := f.users[a.UserID]
		out = append(out, AdminEntry{Attendance: *a, UserName: u.Name, UserEmail: u.Email, UserRole: u.Role})
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CheckinTime, out[j].CheckinTime
		switch {
		case ti == nil && tj == nil:
			return out[i].AttendanceID < out[j].AttendanceID
		case ti == nil:
			return true
		case tj == nil:
			return false
		case *ti != *tj:
			return *ti < *tj
		default:
			return out[i].AttendanceID < out[j].AttendanceID
		}
	})
	return out, nil
}

func (f *fakeStore) ListPendingByDate(ctx context.Context, date string) ([]AdminEntry, error) {
	all, _ := f.ListByDate(ctx, date)
	out := make([]AdminEntry, 0)
	for _, e := range all {
		if (e.EarlyCheckin && !e.EarlyCheckinApproved) || (e.EarlyCheckout && !e.EarlyCheckoutApproved) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ===== helpers =====

func testPolicy() Policy {
	return Policy{
		Loc:             time.UTC,
		CheckinDeadline: ClockTime{Hour: 9, Min: 30},
		CheckoutOpen:    ClockTime{Hour: 18, Min: 30},
	}
}

func at(hour, min int) fixedClock {
	return fixedClock{t: time.Date(2024, 1, 10, hour, min, 0, 0, time.UTC)}
}

func newTestService(store Store, clock Clock) *Service {
	return newService(store, testPolicy(), clock)
}

func mustPolicyViolation(t *testing.T, err error) {
	t.Helper()
	api, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if api.Code != CodePolicyViolation {
		t.Fatalf("expected POLICY_VIOLATION, got %s", api.Code)
	}
}

// ===== check-in =====

func TestCheckInBeforeDeadline(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))

	rec, err := svc.CheckIn(context.Background(), ActionRequest{UserID: 7})
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if rec.UserID != 7 || rec.Date != "2024-01-10" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.CheckinTime == nil || *rec.CheckinTime != "09:00:00" {
		t.Fatalf("expected checkinTime 09:00:00, got %v", rec.CheckinTime)
	}
	if rec.Status != StatusCheckedIn {
		t.Fatalf("expected status checked_in, got %q", rec.Status)
	}
}

func TestCheckInTwiceRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 0))
	first, err := svc.CheckIn(context.Background(), ActionRequest{UserID: 7})
	if err != nil {
		t.Fatalf("first check-in: %v", err)
	}

	svc2 := newTestService(store, at(9, 15))
	_, err = svc2.CheckIn(context.Background(), ActionRequest{UserID: 7})
	mustPolicyViolation(t, err)

	// レコードは変わっていないこと
	got, _ := store.GetByUserDate(context.Background(), 7, "2024-01-10")
	if got == nil || *got.CheckinTime != *first.CheckinTime {
		t.Fatalf("record mutated by rejected check-in: %+v", got)
	}
}

func TestCheckInAfterDeadlineRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 31))

	_, err := svc.CheckIn(context.Background(), ActionRequest{UserID: 7})
	mustPolicyViolation(t, err)

	if got, _ := store.GetByUserDate(context.Background(), 7, "2024-01-10"); got != nil {
		t.Fatalf("rejected check-in must not create a record, got %+v", got)
	}
}

func TestCheckInAtExactDeadlineAllowed(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(9, 30))

	if _, err := svc.CheckIn(context.Background(), ActionRequest{UserID: 7}); err != nil {
		t.Fatalf("check-in at 09:30 must pass: %v", err)
	}
}

// ===== check-out =====

func TestCheckOutBeforeCheckInRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, at(19, 0))

	_, err := svc.CheckOut(context.Background(), ActionRequest{UserID: 7})
	mustPolicyViolation(t, err)

	// checkout だけのレコードが黙って出来てはいけない
	if got, _ := store.GetByUserDate(context.Background(), 7, "2024-01-10"); got != nil {
		t.Fatalf("checkout-only record created: %+v", got)
	}
}

func TestCheckOutBeforeWindowRejected(t *testing.T) {
	store := newFakeStore()
	if _, err := newTestService(store, at(9, 0)).CheckIn(context.Background(), ActionRequest{UserID: 7}); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	_, err := newTestService(store, at(12, 0)).CheckOut(context.Background(), ActionRequest{UserID: 7})
	mustPolicyViolation(t, err)
}

func TestCheckOutAfterWindow(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	if _, err := newTestService(store, at(9, 0)).CheckIn(ctx, ActionRequest{UserID: 7}); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	rec, err := newTestService(store, at(19, 0)).CheckOut(ctx, ActionRequest{UserID: 7})
	if err != nil {
		t.Fatalf("check-out: %v", err)
	}
	if rec.CheckoutTime == nil || *rec.CheckoutTime != "19:00:00" {
		t.Fatalf("expected checkoutTime 19:00:00, got %v", rec.CheckoutTime)
	}
	if rec.Status != StatusCheckedOut {
		t.Fatalf("expected status checked_out, got %q", rec.Status)
	}
}

func TestCheckOutTwiceRejected(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	if _, err := newTestService(store, at(9, 0)).CheckIn(ctx, ActionRequest{UserID: 7}); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := newTestService(store, at(19, 0)).CheckOut(ctx, ActionRequest{UserID: 7}); err != nil {
		t.Fatalf("check-out: %v", err)
	}

	_, err := newTestService(store, at(19, 30)).CheckOut(ctx, ActionRequest{UserID: 7})
	mustPolicyViolation(t, err)
}

// ===== early requests / approval =====

func TestEarlyCheckoutStandaloneThenApprove(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	svc := newTestService(store, at(14, 0))

	// チェックイン無しでも申請は通る（スタンドアロン運用）
	rec, err := svc.RequestEarlyCheckout(ctx, ActionRequest{UserID: 9})
	if err != nil {
		t.Fatalf("early checkout request: %v", err)
	}
	if !rec.EarlyCheckout || rec.Status != StatusPending {
		t.Fatalf("expected pending early-checkout record, got %+v", rec)
	}

	approved, changed, err := svc.ApproveEarly(ctx, rec.ID, KindCheckout)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !changed {
		t.Fatalf("first approval must report changed=true")
	}
	if !approved.EarlyCheckoutApproved || approved.Status != StatusApproved {
		t.Fatalf("expected approved record, got %+v", approved)
	}

	// 冪等: 二回目はエラーにならず changed=false
	again, changed, err := svc.ApproveEarly(ctx, rec.ID, KindCheckout)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if changed {
		t.Fatalf("second approval must report changed=false")
	}
	if !again.EarlyCheckoutApproved {
		t.Fatalf("approved flag must stay set")
	}
}

func TestEarlyCheckinRequestThenApprove(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	svc := newTestService(store, at(10, 0))

	rec, err := svc.RequestEarlyCheckin(ctx, ActionRequest{UserID: 5})
	if err != nil {
		t.Fatalf("early checkin request: %v", err)
	}
	if !rec.EarlyCheckin || rec.EarlyCheckinApproved {
		t.Fatalf("expected unapproved request, got %+v", rec)
	}

	approved, _, err := svc.ApproveEarly(ctx, rec.ID, KindCheckin)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.EarlyCheckinApproved || approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %+v", approved)
	}
}

func TestApproveWithoutRequestRejected(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	rec, err := newTestService(store, at(9, 0)).CheckIn(ctx, ActionRequest{UserID: 7})
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}

	_, _, err = newTestService(store, at(10, 0)).ApproveEarly(ctx, rec.ID, KindCheckin)
	mustPolicyViolation(t, err)
}

func TestApproveUnknownRecordNotFound(t *testing.T) {
	svc := newTestService(newFakeStore(), at(10, 0))

	_, _, err := svc.ApproveEarly(context.Background(), 12345, KindCheckin)
	api, ok := err.(*APIError)
	if !ok || api.Code != CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

// ===== upsert semantics =====

func TestSameKeyNeverDuplicates(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	svc := newTestService(store, at(8, 0))

	a, err := svc.RequestEarlyCheckin(ctx, ActionRequest{UserID: 3})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	b, err := svc.RequestEarlyCheckout(ctx, ActionRequest{UserID: 3})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if a.ID != b.ID {
		t.Fatalf("two requests for the same (user, day) must hit one record: %d vs %d", a.ID, b.ID)
	}
	if !b.EarlyCheckin || !b.EarlyCheckout {
		t.Fatalf("flags must accumulate on the same record: %+v", b)
	}
}

// ===== today / date handling =====

func TestTodayNilWhenNoRecord(t *testing.T) {
	svc := newTestService(newFakeStore(), at(8, 0))

	rec, err := svc.Today(context.Background(), 7)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for an untouched day, got %+v", rec)
	}
}

func TestExplicitDateValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), at(9, 0))
	bad := "10-01-2024"

	_, err := svc.CheckIn(context.Background(), ActionRequest{UserID: 7, Date: &bad})
	api, ok := err.(*APIError)
	if !ok || api.Code != CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestTodayUsesPolicyZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	policy := testPolicy()
	policy.Loc = tokyo

	// UTC 23:00 = 東京の翌日 08:00 → 東京の日付でレコードが切られる
	clock := fixedClock{t: time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)}
	store := newFakeStore()
	svc := newService(store, policy, clock)

	rec, err := svc.CheckIn(context.Background(), ActionRequest{UserID: 7})
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if rec.Date != "2024-01-11" {
		t.Fatalf("expected policy-zone date 2024-01-11, got %s", rec.Date)
	}
	if *rec.CheckinTime != "08:00:00" {
		t.Fatalf("expected policy-zone time 08:00:00, got %s", *rec.CheckinTime)
	}
}

// ===== admin listing =====

func TestAdminListTodayOrderedAndComplete(t *testing.T) {
	store := newFakeStore()
	store.users[1] = AdminUser{ID: 1, Name: "Aoi", Email: "aoi@example.com", Role: "user"}
	store.users[2] = AdminUser{ID: 2, Name: "Ren", Email: "ren@example.com", Role: "user"}
	store.users[3] = AdminUser{ID: 3, Name: "Mio", Email: "mio@example.com", Role: "head"}
	ctx := context.Background()

	// 順不同でチェックインさせる
	if _, err := newTestService(store, at(9, 20)).CheckIn(ctx, ActionRequest{UserID: 2}); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := newTestService(store, at(8, 45)).CheckIn(ctx, ActionRequest{UserID: 1}); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := newTestService(store, at(9, 5)).CheckIn(ctx, ActionRequest{UserID: 3}); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	list, err := newTestService(store, at(10, 0)).AdminListToday(ctx)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(list))
	}
	want := []int64{1, 3, 2} // 08:45, 09:05, 09:20
	for i, e := range list {
		if e.UserID != want[i] {
			t.Fatalf("order mismatch at %d: got user %d, want %d", i, e.UserID, want[i])
		}
	}
	if list[0].User.Name != "Aoi" || list[0].User.Email != "aoi@example.com" {
		t.Fatalf("user identity not joined: %+v", list[0].User)
	}
}

func TestAdminListPendingFiltersApproved(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	svc := newTestService(store, at(8, 0))

	a, err := svc.RequestEarlyCheckin(ctx, ActionRequest{UserID: 1})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.RequestEarlyCheckout(ctx, ActionRequest{UserID: 2}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, _, err := svc.ApproveEarly(ctx, a.ID, KindCheckin); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pending, err := svc.AdminListPending(ctx, nil)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].UserID != 2 {
		t.Fatalf("expected only user 2 pending, got %+v", pending)
	}
}
