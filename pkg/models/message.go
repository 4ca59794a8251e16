package models

import "time"

// MessageRecord is a persisted channel message hydrated with its sender's display
// name. The server assigns ID and Timestamp; Timestamp is authoritative for ordering.
type MessageRecord struct {
	ID         int64     `json:"id"`
	ChannelID  int64     `json:"channel_id"`
	UserID     int64     `json:"user_id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	SenderName string    `json:"sender_name"`

	// persisted receipts keyed by observer, filled on history reads only
	Delivered map[int64]time.Time `json:"delivered,omitempty"`
	Read      map[int64]time.Time `json:"read,omitempty"`
}

// ReceiptKind distinguishes delivery from read acknowledgements.
type ReceiptKind string

const (
	ReceiptDelivered ReceiptKind = "delivered"
	ReceiptRead      ReceiptKind = "read"
)

// MessagePage is the body of a paginated history response, oldest first.
type MessagePage struct {
	Messages []MessageRecord `json:"messages"`
}
