package attendance

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	DefaultCheckinDeadline = "09:30"
	DefaultCheckoutOpen    = "18:30"
	DefaultTZ              = "UTC"
)

// POST /attendance/checkin 等の共通ボディ
type ActionRequest struct {
	UserID int64   `json:"userId" binding:"required"`
	Date   *string `json:"date,omitempty"` // "YYYY-MM-DD"、省略時はサーバ側の「今日」
}

type AttendanceResponse struct {
	ID                    int64   `json:"id"`
	UserID                int64   `json:"userId"`
	Date                  string  `json:"date"` // YYYY-MM-DD
	CheckinTime           *string `json:"checkinTime"`
	CheckoutTime          *string `json:"checkoutTime"`
	EarlyCheckin          bool    `json:"earlyCheckin"`
	EarlyCheckout         bool    `json:"earlyCheckout"`
	EarlyCheckinApproved  bool    `json:"earlyCheckinApproved"`
	EarlyCheckoutApproved bool    `json:"earlyCheckoutApproved"`
	Status                string  `json:"status"`
}

type ActionResponse struct {
	Message    string             `json:"message"`
	Attendance AttendanceResponse `json:"attendance"`
}

type AdminUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AdminAttendanceResponse struct {
	AttendanceResponse
	User AdminUser `json:"user"`
}

type ApproveResponse struct {
	Message    string             `json:"message"`
	Changed    bool               `json:"changed"` // 監査用: 実際にフラグが立ったか
	Attendance AttendanceResponse `json:"attendance"`
}
