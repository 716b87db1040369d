package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"EMS-backend/internal/platform/db"
)

// Store は勤怠レコードの永続化。(user_id, attended_on) の UNIQUE キーが
// 同一ユーザ・同一日の二重送信に対する唯一の排他になる。
type Store interface {
	GetByUserDate(ctx context.Context, userID int64, date string) (*Attendance, error)
	GetByID(ctx context.Context, id int64) (*Attendance, error)
	Upsert(ctx context.Context, userID int64, date string, p Patch) (Attendance, bool, error)
	UpdateByID(ctx context.Context, id int64, p Patch) (Attendance, error)
	ListByDate(ctx context.Context, date string) ([]AdminEntry, error)
	ListPendingByDate(ctx context.Context, date string) ([]AdminEntry, error)
}

type MySQLStore struct{ db db.DBTX }

func NewStore(db db.DBTX) *MySQLStore { return &MySQLStore{db: db} }

const selectCols = `
	attendance_id, user_id, DATE_FORMAT(attended_on, '%Y-%m-%d'),
	TIME_FORMAT(checkin_time, '%H:%i:%s'), TIME_FORMAT(checkout_time, '%H:%i:%s'),
	early_checkin, early_checkout, early_checkin_approved, early_checkout_approved`

func scanRow(row *sql.Row) (*Attendance, error) {
	var r attendanceRow
	err := row.Scan(
		&r.AttendanceID, &r.UserID, &r.AttendedOn,
		&r.CheckinTime, &r.CheckoutTime,
		&r.EarlyCheckin, &r.EarlyCheckout,
		&r.EarlyCheckinApproved, &r.EarlyCheckoutApproved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := r.toModel()
	return &a, nil
}

func (s *MySQLStore) GetByUserDate(ctx context.Context, userID int64, date string) (*Attendance, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT `+selectCols+`
	FROM attendances
	WHERE user_id = ? AND attended_on = ?
	LIMIT 1`, userID, date)
	return scanRow(row)
}

func (s *MySQLStore) GetByID(ctx context.Context, id int64) (*Attendance, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT `+selectCols+`
	FROM attendances
	WHERE attendance_id = ?
	LIMIT 1`, id)
	return scanRow(row)
}

// Upsert: user_id + attended_on（UNIQUE）でINSERTまたはUPDATE。
// 打刻時刻は COALESCE で「最初に書いた値」を守る。フラグは OR で寄せるので
// 二重送信が来ても値が巻き戻ることはない。
// 返り値: 確定行、created=true（新規）/false（更新）
func (s *MySQLStore) Upsert(ctx context.Context, userID int64, date string, p Patch) (Attendance, bool, error) {
	const q = `
	INSERT INTO attendances
		(user_id, attended_on, checkin_time, checkout_time,
		 early_checkin, early_checkout, early_checkin_approved, early_checkout_approved, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		checkin_time            = COALESCE(checkin_time, VALUES(checkin_time)),
		checkout_time           = COALESCE(checkout_time, VALUES(checkout_time)),
		early_checkin           = early_checkin | VALUES(early_checkin),
		early_checkout          = early_checkout | VALUES(early_checkout),
		early_checkin_approved  = early_checkin_approved | VALUES(early_checkin_approved),
		early_checkout_approved = early_checkout_approved | VALUES(early_checkout_approved),
		status                  = VALUES(status)`

	res, err := s.db.ExecContext(ctx, q,
		userID, date,
		strOrNil(p.CheckinTime), strOrNil(p.CheckoutTime),
		boolVal(p.EarlyCheckin), boolVal(p.EarlyCheckout),
		boolVal(p.EarlyCheckinApproved), boolVal(p.EarlyCheckoutApproved),
		p.Status,
	)
	if err != nil {
		return Attendance{}, false, err
	}
	// 新規: RowsAffected = 1 / 既存更新: 2（変化なしは 0）
	aff, _ := res.RowsAffected()
	created := aff == 1

	rec, err := s.GetByUserDate(ctx, userID, date)
	if err != nil {
		return Attendance{}, created, err
	}
	if rec == nil {
		return Attendance{}, created, ErrInternal("inserted but not found")
	}
	return *rec, created, nil
}

// UpdateByID: 既存行のみ更新（行が無ければ NotFound）。承認系で使う。
func (s *MySQLStore) UpdateByID(ctx context.Context, id int64, p Patch) (Attendance, error) {
	var (
		sets []string
		args []any
	)
	if p.CheckinTime != nil {
		sets = append(sets, "checkin_time = COALESCE(checkin_time, ?)")
		args = append(args, *p.CheckinTime)
	}
	if p.CheckoutTime != nil {
		sets = append(sets, "checkout_time = COALESCE(checkout_time, ?)")
		args = append(args, *p.CheckoutTime)
	}
	if p.EarlyCheckin != nil && *p.EarlyCheckin {
		sets = append(sets, "early_checkin = 1")
	}
	if p.EarlyCheckout != nil && *p.EarlyCheckout {
		sets = append(sets, "early_checkout = 1")
	}
	if p.EarlyCheckinApproved != nil && *p.EarlyCheckinApproved {
		sets = append(sets, "early_checkin_approved = 1")
	}
	if p.EarlyCheckoutApproved != nil && *p.EarlyCheckoutApproved {
		sets = append(sets, "early_checkout_approved = 1")
	}
	sets = append(sets, "status = ?")
	args = append(args, p.Status, id)

	q := "UPDATE attendances SET " + strings.Join(sets, ", ") + " WHERE attendance_id = ?"
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return Attendance{}, err
	}

	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return Attendance{}, err
	}
	if rec == nil {
		return Attendance{}, ErrNotFound("attendance record not found")
	}
	return *rec, nil
}

const adminSelect = `
	SELECT
		a.attendance_id, a.user_id, DATE_FORMAT(a.attended_on, '%Y-%m-%d'),
		TIME_FORMAT(a.checkin_time, '%H:%i:%s'), TIME_FORMAT(a.checkout_time, '%H:%i:%s'),
		a.early_checkin, a.early_checkout, a.early_checkin_approved, a.early_checkout_approved,
		u.name, u.email, u.role
	FROM attendances a
	JOIN users u ON u.id = a.user_id
	WHERE a.attended_on = ?`

// ListByDate: 指定日の全レコードをユーザ情報つきで、checkin_time 昇順。
func (s *MySQLStore) ListByDate(ctx context.Context, date string) ([]AdminEntry, error) {
	return s.listAdmin(ctx, adminSelect+`
	ORDER BY a.checkin_time ASC, a.attendance_id ASC`, date)
}

// ListPendingByDate: 未承認の早出/早退リクエストを持つレコードのみ。
func (s *MySQLStore) ListPendingByDate(ctx context.Context, date string) ([]AdminEntry, error) {
	return s.listAdmin(ctx, adminSelect+`
	AND ((a.early_checkin AND NOT a.early_checkin_approved)
	  OR (a.early_checkout AND NOT a.early_checkout_approved))
	ORDER BY a.checkin_time ASC, a.attendance_id ASC`, date)
}

func (s *MySQLStore) listAdmin(ctx context.Context, q string, date string) ([]AdminEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AdminEntry, 0)
	for rows.Next() {
		var (
			r attendanceRow
			e AdminEntry
		)
		if err := rows.Scan(
			&r.AttendanceID, &r.UserID, &r.AttendedOn,
			&r.CheckinTime, &r.CheckoutTime,
			&r.EarlyCheckin, &r.EarlyCheckout,
			&r.EarlyCheckinApproved, &r.EarlyCheckoutApproved,
			&e.UserName, &e.UserEmail, &e.UserRole,
		); err != nil {
			return nil, err
		}
		e.Attendance = r.toModel()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ===== helpers =====

func strOrNil(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func boolVal(b *bool) bool {
	return b != nil && *b
}
