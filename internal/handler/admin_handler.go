package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/udacchi/attendance-management-sub000/internal/dto"
	"github.com/udacchi/attendance-management-sub000/internal/models"
	"github.com/udacchi/attendance-management-sub000/internal/service"
	appErrors "github.com/udacchi/attendance-management-sub000/pkg/errors"
	"github.com/udacchi/attendance-management-sub000/pkg/response"
)

// AdminHandler exposes the administrator surface: cross-user attendance
// listings, direct edits, account management and exports.
type AdminHandler struct {
	attendance *service.AttendanceService
	users      *service.UserService
	exports    *service.ExportService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(attendance *service.AttendanceService, users *service.UserService, exports *service.ExportService) *AdminHandler {
	return &AdminHandler{attendance: attendance, users: users, exports: exports}
}

// ListAttendance godoc
// @Summary List attendance days across users
// @Tags Admin
// @Produce json
// @Param user_id query string false "Filter by user"
// @Param month query string false "Month (YYYY-MM)"
// @Param date query string false "Exact date (YYYY-MM-DD)"
// @Param status query string false "Day status"
// @Param page query int false "Page"
// @Param size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance [get]
func (h *AdminHandler) ListAttendance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.AttendanceFilter{
		UserID:    c.Query("user_id"),
		SortBy:    c.DefaultQuery("sort_by", "work_date"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
		Page:      parsePositiveInt(c.Query("page"), 1),
		PageSize:  parsePositiveInt(c.Query("size"), 50),
	}
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD"))
			return
		}
		filter.Date = &parsed
	}
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be formatted YYYY-MM"))
			return
		}
		until := parsed.AddDate(0, 1, 0)
		filter.MonthFrom = &parsed
		filter.MonthTo = &until
	}
	if raw := c.Query("status"); raw != "" {
		status := models.DayStatus(strings.ToUpper(raw))
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown day status "+raw))
			return
		}
		filter.Status = &status
	}

	rows, total, err := h.attendance.ListAll(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// UserMonth godoc
// @Summary One user's month listing
// @Tags Admin
// @Produce json
// @Param userId path string true "User ID"
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/{userId}/days [get]
func (h *AdminHandler) UserMonth(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.attendance.Month(c.Request.Context(), claims, c.Param("userId"), c.Query("month"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// UserDay godoc
// @Summary One user's day detail
// @Tags Admin
// @Produce json
// @Param userId path string true "User ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance/{userId}/days/{date} [get]
func (h *AdminHandler) UserDay(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	day, err := h.attendance.DayDetail(c.Request.Context(), claims, c.Param("userId"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, day, nil)
}

// EditUserDay godoc
// @Summary Directly edit a user's day
// @Description Overwrite one attendance day on behalf of a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.DayEditRequest true "Day edit"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/attendance/{userId}/days/{date} [put]
func (h *AdminHandler) EditUserDay(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.DayEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid edit payload"))
		return
	}

	day, err := h.attendance.DirectEdit(c.Request.Context(), claims, c.Param("userId"), c.Param("date"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, day, nil)
}

// Export godoc
// @Summary Export a month of attendance
// @Description Download one month as CSV or PDF; omit user_id for all users
// @Tags Admin
// @Produce text/csv
// @Param user_id query string false "User ID (empty for all users)"
// @Param month query string true "Month (YYYY-MM)"
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} file
// @Router /admin/attendance/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.exports.MonthExport(c.Request.Context(), claims, c.Query("user_id"), c.Query("month"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// ListUsers godoc
// @Summary List accounts
// @Tags Admin
// @Produce json
// @Param role query string false "Role filter"
// @Param search query string false "Email or name search"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := models.UserFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      parsePositiveInt(c.Query("page"), 1),
		PageSize:  parsePositiveInt(c.Query("size"), 50),
	}
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(strings.ToUpper(raw))
		filter.Role = &role
	}

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// CreateUser godoc
// @Summary Create an account
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.CreateUserRequest true "Account"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// VerifyUserEmail godoc
// @Summary Mark an account's email verified
// @Tags Admin
// @Produce json
// @Param userId path string true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{userId}/verify-email [post]
func (h *AdminHandler) VerifyUserEmail(c *gin.Context) {
	if err := h.users.VerifyEmail(c.Request.Context(), c.Param("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
