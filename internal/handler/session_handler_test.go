package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

func TestSessionHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerListRejectsBadFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/sessions?from=yesterday", http.NoBody)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerClaimRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/sessions/sess-1/claim", http.NoBody)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	handler.Claim(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingOutcomeClassification(t *testing.T) {
	assert.Equal(t, "conflict", bookingOutcome(appErrors.ErrConflict))
	assert.Equal(t, "outside_availability", bookingOutcome(appErrors.ErrOutsideAvailability))
	assert.Equal(t, "rejected", bookingOutcome(appErrors.ErrValidation))
	assert.Equal(t, "rejected", bookingOutcome(appErrors.ErrInternal))
}
