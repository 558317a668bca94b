package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/internal/service"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
	"github.com/kineticfit/booking-api/pkg/response"
)

// SessionHandler exposes booking and scheduling endpoints.
type SessionHandler struct {
	sessions *service.SessionService
	metrics  *service.MetricsService
}

// NewSessionHandler constructs SessionHandler. Metrics may be nil.
func NewSessionHandler(sessions *service.SessionService, metrics *service.MetricsService) *SessionHandler {
	return &SessionHandler{sessions: sessions, metrics: metrics}
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param trainerId query string false "Filter by trainer"
// @Param userId query string false "Filter by client"
// @Param status query string false "Filter by status"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param groupId query string false "Filter by recurring group"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	var query dto.SessionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	filter := models.SessionFilter{
		TrainerID: query.TrainerID,
		UserID:    query.UserID,
		Status:    models.SessionStatus(strings.ToLower(query.Status)),
		GroupID:   query.GroupID,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339"))
			return
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339"))
			return
		}
		filter.To = &to
	}

	// Clients see their own sessions plus open slots; trainers their own
	// calendar. Admins list unscoped.
	if claims := claimsFromContext(c); claims != nil {
		switch claims.Role {
		case models.RoleClient:
			filter.UserID = ""
			filter.VisibleToClient = claims.UserID
		case models.RoleTrainer:
			filter.TrainerID = claims.UserID
		}
	}

	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get session by ID
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Book a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Book(c.Request.Context(), req)
	if err != nil {
		h.metrics.RecordBooking(bookingOutcome(err))
		response.Error(c, err)
		return
	}
	h.metrics.RecordBooking("booked")
	response.Created(c, session)
}

// CreateRecurring godoc
// @Summary Book a recurring series
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.RecurringBookingRequest true "Recurring booking payload"
// @Success 201 {object} response.Envelope
// @Router /sessions/recurring [post]
func (h *SessionHandler) CreateRecurring(c *gin.Context) {
	var req dto.RecurringBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.sessions.BookRecurring(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	for _, item := range result.Results {
		if item.OK {
			h.metrics.RecordBooking("booked")
		} else {
			h.metrics.RecordBooking("conflict")
		}
	}
	response.Created(c, result)
}

// PublishOpenSlots godoc
// @Summary Publish open slots for client self-booking
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.OpenSlotsRequest true "Open slots payload"
// @Success 201 {object} response.Envelope
// @Router /sessions/open-slots [post]
func (h *SessionHandler) PublishOpenSlots(c *gin.Context) {
	var req dto.OpenSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.sessions.PublishOpenSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, results)
}

// Claim godoc
// @Summary Claim a published open slot
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/claim [post]
func (h *SessionHandler) Claim(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, err := h.sessions.BookOpenSlot(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		h.metrics.RecordBooking(bookingOutcome(err))
		response.Error(c, err)
		return
	}
	h.metrics.RecordBooking("booked")
	response.JSON(c, http.StatusOK, session, nil)
}

// Reschedule godoc
// @Summary Reschedule a session or its whole series
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/reschedule [put]
func (h *SessionHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, series, err := h.sessions.Reschedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if series != nil {
		response.JSON(c, http.StatusOK, series, nil)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// UpdateStatus godoc
// @Summary Transition session status
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/status [put]
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

func bookingOutcome(err error) string {
	switch appErrors.FromError(err).Code {
	case appErrors.ErrConflict.Code:
		return "conflict"
	case appErrors.ErrOutsideAvailability.Code:
		return "outside_availability"
	default:
		return "rejected"
	}
}
