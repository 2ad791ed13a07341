package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"motomarket-chat/internal/mocks"
	"motomarket-chat/internal/telemetry"
)

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, fixedCounter(3), false)

	rec := serve(r, http.MethodGet, "/debug/connections", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugRoutesEnabled(t *testing.T) {
	publisher := new(mocks.EventPublisherMock)
	publisher.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(env telemetry.AuditEnvelope) bool {
		return env.Payload.Action == "debug.audit_ping" && env.Payload.Level == "info"
	})).Return(nil).Once()
	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", "chat", "test", slog.New(slog.NewTextHandler(io.Discard, nil)))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, audit, fixedCounter(3), true)

	rec := serve(r, http.MethodGet, "/debug/connections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liveConnections":3}`, rec.Body.String())

	rec = serve(r, http.MethodPost, "/debug/audit-ping", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	publisher.AssertExpectations(t)
}
