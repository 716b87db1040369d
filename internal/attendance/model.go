package attendance

// ステータスは他フィールドからの純関数で導出する（書き込み箇所ごとの
// その場更新はドリフトの温床なので禁止）。カラムには表示用に同じ値を
// 書くが、読み出し側は常に DeriveStatus の結果を使う。
const (
	StatusApproved   = "approved"
	StatusPending    = "pending"
	StatusCheckedOut = "checked_out"
	StatusCheckedIn  = "checked_in"
	StatusNone       = ""
)

// DB行に対応（スキャン用）
type attendanceRow struct {
	AttendanceID          int64
	UserID                int64
	AttendedOn            string // DATE → "YYYY-MM-DD"
	CheckinTime           *string
	CheckoutTime          *string
	EarlyCheckin          bool
	EarlyCheckout         bool
	EarlyCheckinApproved  bool
	EarlyCheckoutApproved bool
}

// Service ↔ Store で使うモデル
type Attendance struct {
	AttendanceID          int64
	UserID                int64
	AttendedOn            string
	CheckinTime           *string // "HH:MM:SS"
	CheckoutTime          *string
	EarlyCheckin          bool
	EarlyCheckout         bool
	EarlyCheckinApproved  bool
	EarlyCheckoutApproved bool
	Status                string
}

// 管理者一覧用（users と JOIN した行）
type AdminEntry struct {
	Attendance
	UserName  string
	UserEmail string
	UserRole  string
}

// Patch は upsert / update で書き換えるフィールドだけを持つ。
// nil のフィールドは触らない。Status は常に DeriveStatus の結果を渡す。
type Patch struct {
	CheckinTime           *string
	CheckoutTime          *string
	EarlyCheckin          *bool
	EarlyCheckout         *bool
	EarlyCheckinApproved  *bool
	EarlyCheckoutApproved *bool
	Status                string
}

func (r attendanceRow) toModel() Attendance {
	a := Attendance{
		AttendanceID:          r.AttendanceID,
		UserID:                r.UserID,
		AttendedOn:            r.AttendedOn,
		CheckinTime:           r.CheckinTime,
		CheckoutTime:          r.CheckoutTime,
		EarlyCheckin:          r.EarlyCheckin,
		EarlyCheckout:         r.EarlyCheckout,
		EarlyCheckinApproved:  r.EarlyCheckinApproved,
		EarlyCheckoutApproved: r.EarlyCheckoutApproved,
	}
	a.Status = DeriveStatus(a)
	return a
}

// DeriveStatus は record の要約ラベルを導出する。
// 優先順位: approved > pending > checked_out > checked_in > none
func DeriveStatus(a Attendance) string {
	switch {
	case a.EarlyCheckinApproved || a.EarlyCheckoutApproved:
		return StatusApproved
	case (a.EarlyCheckin && !a.EarlyCheckinApproved) || (a.EarlyCheckout && !a.EarlyCheckoutApproved):
		return StatusPending
	case a.CheckoutTime != nil:
		return StatusCheckedOut
	case a.CheckinTime != nil:
		return StatusCheckedIn
	default:
		return StatusNone
	}
}

// applyPatch は patch 適用後の姿を返す（Status は導出し直す）。
// Upsert 前の予測状態の組み立てに使う。
func applyPatch(base *Attendance, p Patch) Attendance {
	var a Attendance
	if base != nil {
		a = *base
	}
	if p.CheckinTime != nil && a.CheckinTime == nil {
		a.CheckinTime = p.CheckinTime
	}
	if p.CheckoutTime != nil && a.CheckoutTime == nil {
		a.CheckoutTime = p.CheckoutTime
	}
	if p.EarlyCheckin != nil {
		a.EarlyCheckin = a.EarlyCheckin || *p.EarlyCheckin
	}
	if p.EarlyCheckout != nil {
		a.EarlyCheckout = a.EarlyCheckout || *p.EarlyCheckout
	}
	if p.EarlyCheckinApproved != nil {
		a.EarlyCheckinApproved = a.EarlyCheckinApproved || *p.EarlyCheckinApproved
	}
	if p.EarlyCheckoutApproved != nil {
		a.EarlyCheckoutApproved = a.EarlyCheckoutApproved || *p.EarlyCheckoutApproved
	}
	a.Status = DeriveStatus(a)
	return a
}

func (a Attendance) toDTO() AttendanceResponse {
	return AttendanceResponse{
		ID:                    a.AttendanceID,
		UserID:                a.UserID,
		Date:                  a.AttendedOn,
		CheckinTime:           a.CheckinTime,
		CheckoutTime:          a.CheckoutTime,
		EarlyCheckin:          a.EarlyCheckin,
		EarlyCheckout:         a.EarlyCheckout,
		EarlyCheckinApproved:  a.EarlyCheckinApproved,
		EarlyCheckoutApproved: a.EarlyCheckoutApproved,
		Status:                a.Status,
	}
}

func (e AdminEntry) toDTO() AdminAttendanceResponse {
	return AdminAttendanceResponse{
		AttendanceResponse: e.Attendance.toDTO(),
		User: AdminUser{
			ID:    e.UserID,
			Name:  e.UserName,
			Email: e.UserEmail,
			Role:  e.UserRole,
		},
	}
}
