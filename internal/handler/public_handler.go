package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cekilis/secret-santa-api/internal/dto"
	"github.com/cekilis/secret-santa-api/internal/service"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
	"github.com/cekilis/secret-santa-api/pkg/response"
)

// PublicHandler serves the unauthenticated invite-link surface.
type PublicHandler struct {
	draws   *service.DrawService
	exports *service.ExportService
}

// NewPublicHandler creates a new handler.
func NewPublicHandler(draws *service.DrawService, exports *service.ExportService) *PublicHandler {
	return &PublicHandler{draws: draws, exports: exports}
}

// Info godoc
// @Summary View a draw through its invite code
// @Tags Public
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /join/{code} [get]
func (h *PublicHandler) Info(c *gin.Context) {
	res, err := h.draws.PublicInfo(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Join godoc
// @Summary Join a draw through its invite code
// @Tags Public
// @Accept json
// @Produce json
// @Param code path string true "Invite code"
// @Param payload body dto.JoinDrawRequest true "Participant payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /join/{code} [post]
func (h *PublicHandler) Join(c *gin.Context) {
	var req dto.JoinDrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid join payload"))
		return
	}

	res, err := h.draws.Join(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// DownloadExport godoc
// @Summary Download a roster export via its signed token
// @Tags Public
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /exports/download [get]
func (h *PublicHandler) DownloadExport(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter required"))
		return
	}

	data, contentType, err := h.exports.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
