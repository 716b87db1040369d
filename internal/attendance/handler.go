package attendance

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 一般ユーザ向け（/attendance 配下にマウントする）
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/today/:userId", h.Today)
	r.POST("/checkin", h.CheckIn)
	r.POST("/checkout", h.CheckOut)
	r.POST("/early-checkin", h.EarlyCheckin)
	r.POST("/early-checkout", h.EarlyCheckout)
}

// RegisterAdminRoutes: head 専用（/attendance/admin 配下、RequireRole を通すこと）
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/today", h.AdminToday)
	r.GET("/pending", h.AdminPending)
	r.PATCH("/:id/approve-early-checkin", h.ApproveEarlyCheckin)
	r.PATCH("/:id/approve-early-checkout", h.ApproveEarlyCheckout)
}

// ---------- handlers ----------

// GET /attendance/today/:userId
func (h *Handler) Today(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "userId must be an integer"))
		return
	}

	rec, err := h.svc.Today(c.Request.Context(), userID)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	if rec == nil {
		// 未打刻の日は null（クライアントは「まだチェックインしていない」と解釈する）
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) CheckIn(c *gin.Context) {
	h.action(c, "Checked in", h.svc.CheckIn)
}

func (h *Handler) CheckOut(c *gin.Context) {
	h.action(c, "Checked out", h.svc.CheckOut)
}

func (h *Handler) EarlyCheckin(c *gin.Context) {
	h.action(c, "Early check-in request submitted", h.svc.RequestEarlyCheckin)
}

func (h *Handler) EarlyCheckout(c *gin.Context) {
	h.action(c, "Early check-out request submitted", h.svc.RequestEarlyCheckout)
}

func (h *Handler) action(c *gin.Context, msg string, fn func(ctx context.Context, in ActionRequest) (AttendanceResponse, error)) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing userId"))
		return
	}

	rec, err := fn(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Message: msg, Attendance: rec})
}

// GET /attendance/admin/today
func (h *Handler) AdminToday(c *gin.Context) {
	list, err := h.svc.AdminListToday(c.Request.Context())
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /attendance/admin/pending?date=YYYY-MM-DD
func (h *Handler) AdminPending(c *gin.Context) {
	var date *string
	if v := c.Query("date"); v != "" {
		date = &v
	}
	list, err := h.svc.AdminListPending(c.Request.Context(), date)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ApproveEarlyCheckin(c *gin.Context) {
	h.approve(c, KindCheckin, "Early check-in approved")
}

func (h *Handler) ApproveEarlyCheckout(c *gin.Context) {
	h.approve(c, KindCheckout, "Early check-out approved")
}

func (h *Handler) approve(c *gin.Context, kind Kind, msg string) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "id must be an integer"))
		return
	}

	rec, changed, err := h.svc.ApproveEarly(c.Request.Context(), id, kind)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, ApproveResponse{Message: msg, Changed: changed, Attendance: rec})
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
