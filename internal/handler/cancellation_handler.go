package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/service"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
	"github.com/kineticfit/booking-api/pkg/response"
)

// CancellationHandler exposes the cancellation workflow endpoints.
type CancellationHandler struct {
	cancellations *service.CancellationService
	metrics       *service.MetricsService
}

// NewCancellationHandler constructs CancellationHandler. Metrics may be nil.
func NewCancellationHandler(cancellations *service.CancellationService, metrics *service.MetricsService) *CancellationHandler {
	return &CancellationHandler{cancellations: cancellations, metrics: metrics}
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Cancellations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.CancelSessionRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *CancellationHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.cancellations.Cancel(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCancellation(string(outcome.ChargeType))
	if outcome.SessionCreditRestored {
		h.metrics.RecordCreditRestored()
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Review godoc
// @Summary Adjudicate a pending cancellation
// @Tags Cancellations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.ReviewCancellationRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancellation/review [put]
func (h *CancellationHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.cancellations.Review(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if outcome.SessionCreditRestored {
		h.metrics.RecordCreditRestored()
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// ListPending godoc
// @Summary List cancellations awaiting review
// @Tags Cancellations
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cancellations/pending [get]
func (h *CancellationHandler) ListPending(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	sessions, pagination, err := h.cancellations.ListPending(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}
