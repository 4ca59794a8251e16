package chat

import (
	"errors"
	"log/slog"

	"teamchat/internal/metrics"
	"teamchat/internal/shared"
	"teamchat/pkg/models"
)

// deliver enqueues frame on c. A full queue marks c slow: it is closed and
// its own read loop runs teardown.
func deliver(c Conn, frame []byte, logger *slog.Logger) bool {
	if c.Send(frame) {
		return true
	}
	metrics.SlowConnectionsDropped.Inc()
	logger.Warn("slow_connection_closed", "conn_id", c.ID())
	c.Close()
	return false
}

func errorFrame(reason, message string) []byte {
	frame, err := models.Encode(models.EventError, models.ErrorPayload{Reason: reason, Message: message})
	if err != nil {
		return []byte(`{"type":"error","data":{"reason":"` + reason + `"}}`)
	}
	return frame
}

// reasonFor picks the error event reason for a failed inbound event.
func reasonFor(t models.EventType, err error) string {
	switch {
	case errors.Is(err, shared.ErrAuthenticationRejected):
		return models.ReasonAuthenticationRejected
	case errors.Is(err, shared.ErrNotIdentified):
		return models.ReasonNotIdentified
	case errors.Is(err, shared.ErrMembershipDenied):
		return models.ReasonMembershipDenied
	case errors.Is(err, shared.ErrPersistence) && t == models.EventSendMessage:
		return models.ReasonMessageNotSaved
	case errors.Is(err, shared.ErrPersistence) && t == models.EventJoinChannel:
		return models.ReasonMembershipDenied
	default:
		return models.ReasonValidationFailure
	}
}
