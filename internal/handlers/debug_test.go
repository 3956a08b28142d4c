package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
)

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, "noop", false)

	rec := serve(r, http.MethodGet, "/debug/audit-test", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugAuditTestPublishes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.chat", mock.Anything).Return(nil).Once()

	r := gin.New()
	RegisterDebugRoutes(r, telemetryEmitter(publisher), "amqp", true)

	rec := serve(r, http.MethodGet, "/debug/audit-test", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","publisher":"amqp"}`, rec.Body.String())
	publisher.AssertExpectations(t)
}

func TestDebugAuditTestWithoutEmitter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, "noop", true)

	rec := serve(r, http.MethodGet, "/debug/audit-test", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
