package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/service"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
	"github.com/kineticfit/booking-api/pkg/response"
)

// SessionTypeHandler exposes the session type catalog endpoints.
type SessionTypeHandler struct {
	types *service.SessionTypeService
}

// NewSessionTypeHandler constructs SessionTypeHandler.
func NewSessionTypeHandler(types *service.SessionTypeService) *SessionTypeHandler {
	return &SessionTypeHandler{types: types}
}

// List godoc
// @Summary List session types
// @Tags SessionTypes
// @Produce json
// @Param includeInactive query bool false "Include soft-deleted entries"
// @Success 200 {object} response.Envelope
// @Router /session-types [get]
func (h *SessionTypeHandler) List(c *gin.Context) {
	includeInactive := c.Query("includeInactive") == "true"
	types, err := h.types.List(c.Request.Context(), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Get godoc
// @Summary Get session type by ID
// @Tags SessionTypes
// @Produce json
// @Param id path string true "Session type ID"
// @Success 200 {object} response.Envelope
// @Router /session-types/{id} [get]
func (h *SessionTypeHandler) Get(c *gin.Context) {
	st, err := h.types.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Create godoc
// @Summary Create session type
// @Tags SessionTypes
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionTypeRequest true "Session type payload"
// @Success 201 {object} response.Envelope
// @Router /session-types [post]
func (h *SessionTypeHandler) Create(c *gin.Context) {
	var req dto.CreateSessionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	st, err := h.types.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, st)
}

// Update godoc
// @Summary Update session type
// @Tags SessionTypes
// @Accept json
// @Produce json
// @Param id path string true "Session type ID"
// @Param payload body dto.UpdateSessionTypeRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /session-types/{id} [put]
func (h *SessionTypeHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	st, err := h.types.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

// Delete godoc
// @Summary Deactivate session type
// @Tags SessionTypes
// @Produce json
// @Param id path string true "Session type ID"
// @Success 204
// @Router /session-types/{id} [delete]
func (h *SessionTypeHandler) Delete(c *gin.Context) {
	if err := h.types.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
