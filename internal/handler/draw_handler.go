package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cekilis/secret-santa-api/internal/dto"
	"github.com/cekilis/secret-santa-api/internal/models"
	"github.com/cekilis/secret-santa-api/internal/service"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
	"github.com/cekilis/secret-santa-api/pkg/export"
	"github.com/cekilis/secret-santa-api/pkg/response"
)

// DrawHandler wires the organizer-facing draw endpoints.
type DrawHandler struct {
	draws   *service.DrawService
	exports *service.ExportService
}

// NewDrawHandler creates a new handler.
func NewDrawHandler(draws *service.DrawService, exports *service.ExportService) *DrawHandler {
	return &DrawHandler{draws: draws, exports: exports}
}

// CreateManual godoc
// @Summary Create a manual draw and execute it immediately
// @Tags Draws
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateManualDrawRequest true "Manual draw payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /draws/manual [post]
func (h *DrawHandler) CreateManual(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateManualDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid draw payload"))
		return
	}

	res, err := h.draws.CreateManual(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// CreateDynamic godoc
// @Summary Create an invite-link draw
// @Tags Draws
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateDynamicDrawRequest true "Dynamic draw payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /draws/dynamic [post]
func (h *DrawHandler) CreateDynamic(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateDynamicDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid draw payload"))
		return
	}

	res, err := h.draws.CreateDynamic(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// List godoc
// @Summary List the caller's draws
// @Tags Draws
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by draw type"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /draws [get]
func (h *DrawHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.DrawFilter{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "pageSize", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.DrawStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("type"); raw != "" {
		drawType := models.DrawType(raw)
		filter.Type = &drawType
	}

	items, total, err := h.draws.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, map[string]interface{}{
		"pagination": models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	})
}

// Detail godoc
// @Summary Fetch one draw with its participants
// @Tags Draws
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draw ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /draws/{id} [get]
func (h *DrawHandler) Detail(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.draws.Detail(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// UpdateSchedule godoc
// @Summary Change or clear a draw's scheduled execution time
// @Tags Draws
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draw ID"
// @Param payload body dto.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /draws/{id}/schedule [patch]
func (h *DrawHandler) UpdateSchedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}

	res, err := h.draws.UpdateSchedule(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Trigger godoc
// @Summary Queue a draw for immediate execution
// @Tags Draws
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draw ID"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /draws/{id}/trigger [post]
func (h *DrawHandler) Trigger(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.draws.Trigger(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"message": "draw execution queued"})
}

// Cancel godoc
// @Summary Cancel a non-terminal draw
// @Tags Draws
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draw ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /draws/{id} [delete]
func (h *DrawHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.draws.Cancel(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateExport godoc
// @Summary Export a draw's participant roster
// @Tags Draws
// @Produce json
// @Security BearerAuth
// @Param id path string true "Draw ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /draws/{id}/exports [post]
func (h *DrawHandler) CreateExport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := export.Format(c.DefaultQuery("format", string(export.FormatCSV)))
	res, err := h.exports.CreateRosterExport(c.Request.Context(), claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
