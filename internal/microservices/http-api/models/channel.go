package models

import "time"

type Channel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// ChannelMember is the persisted membership relation consulted at room join
type ChannelMember struct {
	ChannelID int64     `gorm:"primaryKey" json:"channel_id"`
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ChannelMember) TableName() string {
	return "channel_members"
}

// ChannelWithCount is the listing row: a channel plus its member count
type ChannelWithCount struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Members int64  `json:"members"`
}
