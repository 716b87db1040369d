package auth

import "github.com/gin-gonic/gin"

const ctxSessionKey = "auth_session"

// Session は認証済みリクエストの主体。ログイン時に生成され、
// ミドルウェアが各リクエストの context に載せる。
// グローバルな状態には置かない（必ずここから取り出すこと）。
type Session struct {
	UserID int64
	Email  string
	Role   string
}

func (s Session) IsHead() bool { return s.Role == RoleHead }

// SessionFrom は RequireAuth が保存した Session を取り出す。
func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}
