package attendance

import (
	"fmt"
	"time"

	"EMS-backend/internal/platform/db"
)

// ClockTime は壁時計の時刻（時:分）。日付やタイムゾーンは持たない。
type ClockTime struct {
	Hour int
	Min  int
}

func ParseClockTime(s string) (ClockTime, error) {
	var ct ClockTime
	if _, err := fmt.Sscanf(s, "%d:%d", &ct.Hour, &ct.Min); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}
	if ct.Hour < 0 || ct.Hour > 23 || ct.Min < 0 || ct.Min > 59 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q (want HH:MM)", s)
	}
	return ct, nil
}

func (ct ClockTime) String() string { return fmt.Sprintf("%02d:%02d", ct.Hour, ct.Min) }

func (ct ClockTime) minutes() int { return ct.Hour*60 + ct.Min }

// Policy は通常の打刻が許される時間帯。比較は必ずサーバ設定の
// 固定タイムゾーンで行う（クライアントの時計は信用しない）。
type Policy struct {
	Loc             *time.Location
	CheckinDeadline ClockTime // これ以前なら通常チェックイン可
	CheckoutOpen    ClockTime // これ以降なら通常チェックアウト可
}

func NewPolicy(cfg db.AttendanceConfig) (Policy, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = DefaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	deadline := cfg.CheckinDeadline
	if deadline == "" {
		deadline = DefaultCheckinDeadline
	}
	open := cfg.CheckoutOpen
	if open == "" {
		open = DefaultCheckoutOpen
	}

	in, err := ParseClockTime(deadline)
	if err != nil {
		return Policy{}, err
	}
	out, err := ParseClockTime(open)
	if err != nil {
		return Policy{}, err
	}
	return Policy{Loc: loc, CheckinDeadline: in, CheckoutOpen: out}, nil
}

func minutesOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

// CheckinAllowedAt: t（既にポリシーのゾーンへ変換済み）が締切以前か
func (p Policy) CheckinAllowedAt(t time.Time) bool {
	return minutesOfDay(t) <= p.CheckinDeadline.minutes()
}

// CheckoutAllowedAt: t が開始時刻以降か
func (p Policy) CheckoutAllowedAt(t time.Time) bool {
	return minutesOfDay(t) >= p.CheckoutOpen.minutes()
}
