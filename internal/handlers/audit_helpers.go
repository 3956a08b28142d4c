package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/observability"
	"messenger-service/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(observability.RequestIDContextKey); id != "" {
		return id
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(observability.RequestIDContextKey, requestID)
	return requestID
}

// emitAudit records the outcome of a gateway call when an emitter is set.
func emitAudit(c *gin.Context, audit *telemetry.AuditEmitter, level, text string) {
	if audit == nil {
		return
	}
	audit.Emit(c.Request.Context(), telemetry.Entry{
		Level:     level,
		Text:      text,
		RequestID: requestIDFromContext(c),
		UserID:    c.GetInt("userID"),
	})
}

// auditFailure emits an ERROR audit record for err.
func auditFailure(c *gin.Context, audit *telemetry.AuditEmitter, op string, err error) {
	emitAudit(c, audit, "ERROR", op+": "+err.Error())
}
