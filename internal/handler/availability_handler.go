package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/middleware"
	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/internal/service"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
	"github.com/kineticfit/booking-api/pkg/response"
)

// AvailabilityHandler exposes trainer availability endpoints.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// CreateBlock godoc
// @Summary Add an availability block for a trainer
// @Tags Availability
// @Accept json
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Param payload body dto.UpsertAvailabilityBlockRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Router /trainers/{trainerId}/availability [post]
func (h *AvailabilityHandler) CreateBlock(c *gin.Context) {
	trainerID, ok := h.authorizeTrainer(c)
	if !ok {
		return
	}
	var req dto.UpsertAvailabilityBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	block, err := h.availability.CreateBlock(c.Request.Context(), trainerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// ListBlocks godoc
// @Summary List availability blocks touching a window
// @Tags Availability
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /trainers/{trainerId}/availability [get]
func (h *AvailabilityHandler) ListBlocks(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	blocks, err := h.availability.ListBlocks(c.Request.Context(), c.Param("trainerId"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// DeleteBlock godoc
// @Summary Remove an availability block
// @Tags Availability
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Param blockId path string true "Block ID"
// @Success 204
// @Router /trainers/{trainerId}/availability/{blockId} [delete]
func (h *AvailabilityHandler) DeleteBlock(c *gin.Context) {
	trainerID, ok := h.authorizeTrainer(c)
	if !ok {
		return
	}
	if err := h.availability.DeleteBlock(c.Request.Context(), trainerID, c.Param("blockId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Resolve godoc
// @Summary Resolve open intervals for a trainer over a window
// @Tags Availability
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Param from query string true "Window start (RFC3339)"
// @Param to query string true "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /trainers/{trainerId}/availability/resolved [get]
func (h *AvailabilityHandler) Resolve(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	intervals, cacheHit, err := h.availability.Resolve(c.Request.Context(), c.Param("trainerId"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, intervals, nil, middleware.ExtractMeta(c))
}

// authorizeTrainer resolves the path trainer and rejects trainers mutating
// another trainer's calendar. Admins pass through.
func (h *AvailabilityHandler) authorizeTrainer(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	trainerID := c.Param("trainerId")
	if claims.Role == models.RoleTrainer && claims.UserID != trainerID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "trainers manage only their own availability"))
		return "", false
	}
	return trainerID, true
}

func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339"))
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339"))
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
