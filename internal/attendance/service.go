package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"EMS-backend/internal/platform/db"
)

// ===== Error model (platform 各ドメインと同型) =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodePolicyViolation Code = "POLICY_VIOLATION"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrPolicy(msg string) *APIError   { return &APIError{Code: CodePolicyViolation, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict, CodePolicyViolation:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service は1日1レコードの勤怠ステートマシン。
// 状態: レコード無し → checked_in → checked_out、直交して早出/早退の
// 申請フラグが乗る（承認されるまで primary 状態には影響しない）。
type Service struct {
	store  Store
	policy Policy
	clock  Clock
}

func NewService(conn *sql.DB, cfg db.AttendanceConfig) (*Service, error) {
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	return &Service{store: NewStore(conn), policy: policy, clock: realClock{}}, nil
}

func newService(store Store, policy Policy, clock Clock) *Service {
	return &Service{store: store, policy: policy, clock: clock}
}

// PolicyInfo: 起動ログ用
func (s *Service) PolicyInfo() string {
	return fmt.Sprintf("tz=%s checkin<=%s checkout>=%s",
		s.policy.Loc, s.policy.CheckinDeadline, s.policy.CheckoutOpen)
}

// 対象日の決定。省略時はポリシーのタイムゾーンでの「今日」。
// クライアントのローカル日付には依存しない。
func (s *Service) resolveDate(dateStr *string) (string, error) {
	if dateStr == nil || *dateStr == "" {
		return s.clock.Now().In(s.policy.Loc).Format(DateLayout), nil
	}
	t, err := time.ParseInLocation(DateLayout, *dateStr, s.policy.Loc)
	if err != nil {
		return "", ErrInvalid("date must be YYYY-MM-DD")
	}
	return t.Format(DateLayout), nil
}

// GET /attendance/today/:userId
// レコードが無い日は nil（= まだ未打刻。エラーではない）
func (s *Service) Today(ctx context.Context, userID int64) (*AttendanceResponse, error) {
	if userID <= 0 {
		return nil, ErrInvalid("userId is required")
	}
	date := s.clock.Now().In(s.policy.Loc).Format(DateLayout)
	rec, err := s.store.GetByUserDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	dto := rec.toDTO()
	return &dto, nil
}

// POST /attendance/checkin
func (s *Service) CheckIn(ctx context.Context, in ActionRequest) (AttendanceResponse, error) {
	if in.UserID <= 0 {
		return AttendanceResponse{}, ErrInvalid("userId is required")
	}
	date, err := s.resolveDate(in.Date)
	if err != nil {
		return AttendanceResponse{}, err
	}

	rec, err := s.store.GetByUserDate(ctx, in.UserID, date)
	if err != nil {
		return AttendanceResponse{}, err
	}
	if rec != nil && rec.CheckinTime != nil {
		return AttendanceResponse{}, ErrPolicy("already checked in")
	}

	now := s.clock.Now().In(s.policy.Loc)
	if !s.policy.CheckinAllowedAt(now) {
		return AttendanceResponse{}, ErrPolicy(fmt.Sprintf(
			"check-in window closed (deadline %s); request an early check-in instead", s.policy.CheckinDeadline))
	}

	ts := now.Format(TimeLayout)
	patch := Patch{CheckinTime: &ts}
	patch.Status = applyPatch(rec, patch).Status

	saved, _, err := s.store.Upsert(ctx, in.UserID, date, patch)
	if err != nil {
		return AttendanceResponse{}, err
	}
	return saved.toDTO(), nil
}

// POST /attendance/checkout
// チェックイン前のチェックアウトはドメインエラーにする
// （生の NotFound をそのまま返さない）
func (s *Service) CheckOut(ctx context.Context, in ActionRequest) (AttendanceResponse, error) {
	if in.UserID <= 0 {
		return AttendanceResponse{}, ErrInvalid("userId is required")
	}
	date, err := s.resolveDate(in.Date)
	if err != nil {
		return AttendanceResponse{}, err
	}

	rec, err := s.store.GetByUserDate(ctx, in.UserID, date)
	if err != nil {
		return AttendanceResponse{}, err
	}
	if rec == nil || rec.CheckinTime == nil {
		return AttendanceResponse{}, ErrPolicy("must check in first")
	}
	if rec.CheckoutTime != nil {
		return AttendanceResponse{}, ErrPolicy("already checked out")
	}

	now := s.clock.Now().In(s.policy.Loc)
	if !s.policy.CheckoutAllowedAt(now) {
		return AttendanceResponse{}, ErrPolicy(fmt.Sprintf(
			"check-out window not open (opens %s); request an early check-out instead", s.policy.CheckoutOpen))
	}

	ts := now.Format(TimeLayout)
	patch := Patch{CheckoutTime: &ts}
	patch.Status = applyPatch(rec, patch).Status

	saved, err := s.store.UpdateByID(ctx, rec.AttendanceID, patch)
	if err != nil {
		return AttendanceResponse{}, err
	}
	return saved.toDTO(), nil
}

// POST /attendance/early-checkin / early-checkout
// 申請はいつでも受け付ける（時刻・既存状態によらない）。承認されるまでは
// ただのフラグで、primary 状態は変えない。
func (s *Service) RequestEarlyCheckin(ctx context.Context, in ActionRequest) (AttendanceResponse, error) {
	return s.requestEarly(ctx, in, KindCheckin)
}

func (s *Service) RequestEarlyCheckout(ctx context.Context, in ActionRequest) (AttendanceResponse, error) {
	return s.requestEarly(ctx, in, KindCheckout)
}

// Kind は早出(checkin)側か早退(checkout)側か
type Kind string

const (
	KindCheckin  Kind = "checkin"
	KindCheckout Kind = "checkout"
)

func (s *Service) requestEarly(ctx context.Context, in ActionRequest, kind Kind) (AttendanceResponse, error) {
	if in.UserID <= 0 {
		return AttendanceResponse{}, ErrInvalid("userId is required")
	}
	date, err := s.resolveDate(in.Date)
	if err != nil {
		return AttendanceResponse{}, err
	}

	rec, err := s.store.GetByUserDate(ctx, in.UserID, date)
	if err != nil {
		return AttendanceResponse{}, err
	}

	on := true
	var patch Patch
	if kind == KindCheckin {
		patch.EarlyCheckin = &on
	} else {
		patch.EarlyCheckout = &on
	}
	patch.Status = applyPatch(rec, patch).Status

	saved, _, err := s.store.Upsert(ctx, in.UserID, date, patch)
	if err != nil {
		return AttendanceResponse{}, err
	}
	return saved.toDTO(), nil
}

// GET /attendance/admin/today
func (s *Service) AdminListToday(ctx context.Context) ([]AdminAttendanceResponse, error) {
	date := s.clock.Now().In(s.policy.Loc).Format(DateLayout)
	return s.adminList(ctx, date, false)
}

// GET /attendance/admin/pending?date=
func (s *Service) AdminListPending(ctx context.Context, dateStr *string) ([]AdminAttendanceResponse, error) {
	date, err := s.resolveDate(dateStr)
	if err != nil {
		return nil, err
	}
	return s.adminList(ctx, date, true)
}

func (s *Service) adminList(ctx context.Context, date string, pendingOnly bool) ([]AdminAttendanceResponse, error) {
	var (
		entries []AdminEntry
		err     error
	)
	if pendingOnly {
		entries, err = s.store.ListPendingByDate(ctx, date)
	} else {
		entries, err = s.store.ListByDate(ctx, date)
	}
	if err != nil {
		return nil, err
	}
	out := make([]AdminAttendanceResponse, 0, len(entries))
	for i := range entries {
		out = append(out, entries[i].toDTO())
	}
	return out, nil
}

// PATCH /attendance/admin/:id/approve-early-checkin / -checkout
// 冪等: 承認済みをもう一度承認してもエラーにしない（changed=false を返す）。
func (s *Service) ApproveEarly(ctx context.Context, id int64, kind Kind) (AttendanceResponse, bool, error) {
	if id <= 0 {
		return AttendanceResponse{}, false, ErrInvalid("record id is required")
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return AttendanceResponse{}, false, err
	}
	if rec == nil {
		return AttendanceResponse{}, false, ErrNotFound("attendance record not found")
	}

	var (
		requested bool
		approved  bool
		patch     Patch
		on        = true
	)
	if kind == KindCheckin {
		requested, approved = rec.EarlyCheckin, rec.EarlyCheckinApproved
		patch.EarlyCheckinApproved = &on
	} else {
		requested, approved = rec.EarlyCheckout, rec.EarlyCheckoutApproved
		patch.EarlyCheckoutApproved = &on
	}

	if !requested {
		return AttendanceResponse{}, false, ErrPolicy(fmt.Sprintf("no early %s request on this record", kind))
	}
	if approved {
		return rec.toDTO(), false, nil
	}

	patch.Status = applyPatch(rec, patch).Status
	saved, err := s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		return AttendanceResponse{}, false, err
	}
	return saved.toDTO(), true, nil
}
