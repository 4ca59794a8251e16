package models

import "time"

type Message struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChannelID int64     `gorm:"not null;index:idx_messages_channel_ts" json:"channel_id"`
	UserID    int64     `gorm:"not null" json:"user_id"`
	Text      string    `gorm:"not null;type:text" json:"text"`
	Timestamp time.Time `gorm:"not null;index:idx_messages_channel_ts" json:"timestamp"` // set at persist time

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageReceipt holds per-recipient delivery and read times for one message.
// Both fields only ever move to an earlier value once set.
type MessageReceipt struct {
	MessageID   int64      `gorm:"primaryKey" json:"message_id"`
	UserID      int64      `gorm:"primaryKey" json:"user_id"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

func (MessageReceipt) TableName() string {
	return "message_receipts"
}
