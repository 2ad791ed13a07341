package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	r.GET("/chat-rooms/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/chat-rooms/:id", "204"))
	req := httptest.NewRequest(http.MethodGet, "/chat-rooms/abc", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/chat-rooms/:id", "204"))
	assert.Equal(t, before+1, after)
}

func TestBroadcastCounter(t *testing.T) {
	before := testutil.ToFloat64(broadcastsTotal.WithLabelValues(BroadcastOffline))
	IncBroadcast(BroadcastOffline)
	assert.Equal(t, before+1, testutil.ToFloat64(broadcastsTotal.WithLabelValues(BroadcastOffline)))
}

func TestNewEventWithoutSpan(t *testing.T) {
	ev := NewEvent(context.Background(), "chat", EventRoomCreated, map[string]string{"id": "r1"})
	assert.Equal(t, 1, ev.SchemaVersion)
	assert.Equal(t, EventRoomCreated, ev.EventType)
	assert.Empty(t, ev.TraceID)
	assert.NotEmpty(t, ev.EventID)
	assert.NotEqual(t, ev.EventID, NewEvent(context.Background(), "chat", EventRoomCreated, nil).EventID)
	assert.NotEmpty(t, ev.OccurredAt)
}

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "chat", "test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
