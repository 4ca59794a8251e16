package models

import "time"

type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"column:password_hash;not null" json:"-"` // Not show in JSON
	Online    bool      `gorm:"not null;default:false" json:"online"`   // written only by presence
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
