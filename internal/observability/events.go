package observability

import "github.com/rs/zerolog"

// EventEnvelope wraps every event published to the exchange.
type EventEnvelope struct {
	EventType  string      `json:"event_type"`
	EventName  string      `json:"event_name"`
	OccurredAt string      `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// MarshalZerologObject lets publishers log an envelope without knowing its type.
func (e EventEnvelope) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("event_type", e.EventType).Str("event_name", e.EventName)
}

func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
