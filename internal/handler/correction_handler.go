package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/udacchi/attendance-management-sub000/internal/dto"
	"github.com/udacchi/attendance-management-sub000/internal/models"
	"github.com/udacchi/attendance-management-sub000/internal/service"
	appErrors "github.com/udacchi/attendance-management-sub000/pkg/errors"
	"github.com/udacchi/attendance-management-sub000/pkg/response"
)

// CorrectionHandler wires HTTP endpoints to the correction workflow.
type CorrectionHandler struct {
	service *service.CorrectionService
}

// NewCorrectionHandler creates a new handler.
func NewCorrectionHandler(svc *service.CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{service: svc}
}

// Create godoc
// @Summary Submit a correction request
// @Description Propose a rewrite of one day's recorded times for administrator review
// @Tags Corrections
// @Accept json
// @Produce json
// @Param payload body dto.CreateCorrectionRequest true "Correction payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /corrections [post]
func (h *CorrectionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid correction payload"))
		return
	}

	correction, err := h.service.Submit(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, correctionResponse(correction))
}

// List godoc
// @Summary List correction requests
// @Description Employees see their own requests; administrators see all
// @Tags Corrections
// @Produce json
// @Param status query string false "Comma-separated statuses (PENDING, APPROVED, REJECTED)"
// @Param page query int false "Page"
// @Param size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /corrections [get]
func (h *CorrectionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.CorrectionQuery{
		DayID: c.Query("day_id"),
		Page:  parsePositiveInt(c.Query("page"), 1),
		Size:  parsePositiveInt(c.Query("size"), 50),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.CorrectionStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !status.Valid() {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown correction status "+s))
				return
			}
			query.Status = append(query.Status, status)
		}
	}

	rows, total, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]*dto.CorrectionResponse, 0, len(rows))
	for i := range rows {
		items = append(items, correctionResponse(&rows[i]))
	}
	pagination := &models.Pagination{Page: query.Page, PageSize: query.Size, TotalCount: total}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Correction request detail
// @Tags Corrections
// @Produce json
// @Param id path string true "Correction request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /corrections/{id} [get]
func (h *CorrectionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	correction, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, correctionResponse(correction), nil)
}

// Review godoc
// @Summary Review a correction request
// @Description Approve or reject a pending correction request
// @Tags Corrections
// @Accept json
// @Produce json
// @Param id path string true "Correction request ID"
// @Param payload body dto.ReviewCorrectionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /corrections/{id}/review [post]
func (h *CorrectionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReviewCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	correction, err := h.service.Review(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, correctionResponse(correction), nil)
}

func correctionResponse(correction *models.CorrectionRequest) *dto.CorrectionResponse {
	res := &dto.CorrectionResponse{
		ID:          correction.ID,
		DayID:       correction.DayID,
		RequesterID: correction.RequesterID,
		Reason:      correction.Reason,
		Status:      correction.Status,
		ReviewedBy:  correction.ReviewedBy,
		ReviewedAt:  correction.ReviewedAt,
		ReviewNote:  correction.ReviewNote,
		CreatedAt:   correction.CreatedAt,
	}
	if payload, err := correction.DecodePayload(); err == nil {
		res.ClockInAt = payload.ClockInAt
		res.ClockOutAt = payload.ClockOutAt
		res.Note = payload.Note
		res.Breaks = make([]dto.BreakEdit, 0, len(payload.Breaks))
		for _, b := range payload.Breaks {
			res.Breaks = append(res.Breaks, dto.BreakEdit{StartedAt: b.StartedAt, EndedAt: b.EndedAt})
		}
	}
	return res
}
