package handlers

import (
	"messenger-service/internal/mocks"
	"messenger-service/internal/telemetry"
)

func telemetryEmitter(publisher *mocks.PublisherMock) *telemetry.AuditEmitter {
	return telemetry.NewAuditEmitter(publisher, "audit.chat", "messenger-service", "test")
}
