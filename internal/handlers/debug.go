package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motomarket-chat/internal/middleware"
	"motomarket-chat/internal/telemetry"
)

// RegisterDebugRoutes wires development-only endpoints. Nothing is registered unless
// enabled. The router mounts them behind the admin gate.
func RegisterDebugRoutes(router gin.IRoutes, emitter *telemetry.AuditEmitter, connections ConnectionCounter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/connections", func(c *gin.Context) {
		live := 0
		if connections != nil {
			live = connections.Count()
		}
		c.JSON(http.StatusOK, gin.H{"liveConnections": live})
	})

	router.POST("/debug/audit-ping", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured", "code": "INTERNAL_ERROR"})
			return
		}
		emitter.Emit(c.Request.Context(), telemetry.AuditEntry{
			Action:    "debug.audit_ping",
			Text:      "audit pipeline check",
			RequestID: middleware.RequestID(c),
			UserID:    middleware.UserID(c),
		})
		c.JSON(http.StatusAccepted, gin.H{"status": "emitted"})
	})
}
