package model

import "time"

type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	FromUserID uint64    `gorm:"column:from_user_id;not null;index"`
	ToUserID   uint64    `gorm:"column:to_user_id;not null;index"`
	ListingID  *uint64   `gorm:"column:listing_id;index"`
	Body       string    `gorm:"column:message;type:text;not null"`
	Read       bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	Sender    *User    `gorm:"foreignKey:FromUserID"`
	Recipient *User    `gorm:"foreignKey:ToUserID"`
	Listing   *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:SET NULL"`
}

func (Message) TableName() string {
	return "messages"
}

// Counterpart returns the id of the participant that is not uid.
func (m *Message) Counterpart(uid uint64) uint64 {
	if m.FromUserID == uid {
		return m.ToUserID
	}
	return m.FromUserID
}
