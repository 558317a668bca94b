package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/internal/service"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
	"github.com/kineticfit/booking-api/pkg/response"
)

type grantCreditsRequest struct {
	Count int `json:"count" binding:"required"`
}

// CreditHandler exposes client credit balance endpoints.
type CreditHandler struct {
	credits *service.CreditService
}

// NewCreditHandler constructs CreditHandler.
func NewCreditHandler(credits *service.CreditService) *CreditHandler {
	return &CreditHandler{credits: credits}
}

// Balance godoc
// @Summary Get a client's credit balance
// @Tags Credits
// @Produce json
// @Param userId path string true "Client ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{userId}/credits [get]
func (h *CreditHandler) Balance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	userID := c.Param("userId")
	if claims.Role == models.RoleClient && claims.UserID != userID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "clients read only their own balance"))
		return
	}
	credit, err := h.credits.Balance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, credit, nil)
}

// Grant godoc
// @Summary Grant purchased credits to a client
// @Tags Credits
// @Accept json
// @Produce json
// @Param userId path string true "Client ID"
// @Param payload body grantCreditsRequest true "Grant payload"
// @Success 200 {object} response.Envelope
// @Router /clients/{userId}/credits [post]
func (h *CreditHandler) Grant(c *gin.Context) {
	var req grantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	credit, err := h.credits.Grant(c.Request.Context(), c.Param("userId"), req.Count)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, credit, nil)
}
