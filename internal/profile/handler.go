package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"EMS-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes: /profile 配下（RequireAuth を通すこと）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("", h.Get)
	r.PUT("", h.Update)
	r.POST("/avatar", h.UploadAvatar)
}

// GET /profile
// original は email ヘッダでユーザを引いていたが、認証済み Session 起点に改める
func (h *Handler) Get(c *gin.Context) {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	p, err := h.svc.Get(c.Request.Context(), sess.UserID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// PUT /profile
func (h *Handler) Update(c *gin.Context) {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "name and email are required"))
		return
	}

	p, err := h.svc.Update(c.Request.Context(), sess.UserID, req.Name, req.Email)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /profile/avatar (multipart, field "avatar")
func (h *Handler) UploadAvatar(c *gin.Context) {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "No image uploaded"))
		return
	}
	if fh.Size > MaxAvatarBytes {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "avatar exceeds 2 MB limit"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(CodeInternal, "upload failed"))
		return
	}
	defer f.Close()

	url, err := h.svc.SaveAvatar(c.Request.Context(), sess.UserID, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}

// ---------- helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = "internal error"
	}
	return errorBody(code, msg)
}
