package users

import (
	"encoding/json"
	"sort"
)

// 画面側が参照する既知のケーパビリティ。
// 未知の値も保持はする（UIが増えてもDB移行を挟まない）。
const (
	CapAttendance       = "attendance"
	CapDashboard        = "dashboard"
	CapRegistrationForm = "registrationForm"
)

// PermissionSet はユーザに許可されたケーパビリティの集合。
// 旧データは配列だったり {"attendance": true} 形式の map だったりするので、
// ストレージ境界で必ず NormalizePermissions を通し、以降はこの型だけを使う。
type PermissionSet map[string]struct{}

func NewPermissionSet(caps ...string) PermissionSet {
	ps := make(PermissionSet, len(caps))
	for _, c := range caps {
		if c != "" {
			ps[c] = struct{}{}
		}
	}
	return ps
}

func (ps PermissionSet) Has(cap string) bool {
	_, ok := ps[cap]
	return ok
}

func (ps PermissionSet) Add(cap string) {
	if cap != "" {
		ps[cap] = struct{}{}
	}
}

// List はソート済みのスライスを返す（JSON表現と同じ並び）
func (ps PermissionSet) List() []string {
	out := make([]string, 0, len(ps))
	for c := range ps {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// JSONは常にソート済み配列で書き出す
func (ps PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ps.List())
}

func (ps *PermissionSet) UnmarshalJSON(b []byte) error {
	*ps = NormalizePermissions(b)
	return nil
}

// NormalizePermissions は DB の permissions カラム（JSON）を正規化する。
// 受け付ける形:
//   - null / 空          → 空集合
//   - ["attendance", ...] → そのまま
//   - {"attendance": true, "dashboard": false} → true のキーのみ
//
// 壊れたJSONは空集合に落とす（権限は安全側に倒す）。
func NormalizePermissions(raw []byte) PermissionSet {
	ps := make(PermissionSet)
	if len(raw) == 0 {
		return ps
	}

	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		for _, c := range arr {
			ps.Add(c)
		}
		return ps
	}

	var m map[string]bool
	if err := json.Unmarshal(raw, &m); err == nil {
		for c, on := range m {
			if on {
				ps.Add(c)
			}
		}
		return ps
	}

	return ps
}
