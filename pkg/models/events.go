package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names one event on the realtime channel.
type EventType string

// inbound (client -> server)
const (
	EventIdentify         EventType = "identify"
	EventJoinChannel      EventType = "join_channel"
	EventLeaveChannel     EventType = "leave_channel"
	EventSendMessage      EventType = "send_message"
	EventMessageDelivered EventType = "message_delivered"
	EventMessageRead      EventType = "message_read"

	// EventAuth opens a line transport session; websocket clients present
	// their token on the upgrade request instead.
	EventAuth EventType = "auth"
)

// outbound (server -> client)
const (
	EventUserOnline            EventType = "user_online"
	EventUserOffline           EventType = "user_offline"
	EventNewMessage            EventType = "new_message"
	EventMessageDeliveryUpdate EventType = "message_delivery_update"
	EventMessageReadUpdate     EventType = "message_read_update"
	EventError                 EventType = "error"
	EventAuthenticated         EventType = "authenticated"
)

// error reasons carried by EventError
const (
	ReasonAuthenticationRejected = "AuthenticationRejected"
	ReasonMembershipDenied       = "MembershipDenied"
	ReasonMessageNotSaved        = "MessageNotSaved"
	ReasonValidationFailure      = "ValidationFailure"
	ReasonNotIdentified          = "NotIdentified"
	ReasonRateLimited            = "RateLimited"
	ReasonUnknownEvent           = "UnknownEvent"
)

// Envelope is the frame every event travels in, both directions.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type AuthPayload struct {
	Token string `json:"token"`
}

// AuthenticatedPayload acknowledges EventAuth with the user the token names.
type AuthenticatedPayload struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name,omitempty"`
}

type IdentifyPayload struct {
	UserID int64 `json:"user_id"`
}

type ChannelPayload struct {
	ChannelID int64 `json:"channel_id"`
}

type SendMessagePayload struct {
	ChannelID int64  `json:"channel_id"`
	UserID    int64  `json:"user_id"`
	Text      string `json:"text"`
}

type ReceiptPayload struct {
	MessageID int64 `json:"message_id"`
	UserID    int64 `json:"user_id"`
}

type PresencePayload struct {
	UserID int64 `json:"user_id"`
}

type DeliveryUpdatePayload struct {
	MessageID   int64     `json:"message_id"`
	UserID      int64     `json:"user_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type ReadUpdatePayload struct {
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

type ErrorPayload struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Encode marshals data into an envelope of the given type.
func Encode(t EventType, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Data: raw})
}

// Decode parses a frame into its envelope.
func Decode(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("invalid envelope: missing type")
	}
	return &env, nil
}

// DecodeData unmarshals the envelope payload into out.
func (e *Envelope) DecodeData(out any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: missing data", e.Type)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("%s: invalid data: %w", e.Type, err)
	}
	return nil
}
