package model

import "time"

type User struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Email       string    `gorm:"size:255;not null;uniqueIndex:uk_users_email"`
	Name        string    `gorm:"size:120;not null"`
	Password    string    `gorm:"size:255"`
	IsAdmin     bool      `gorm:"column:is_admin;not null;default:false"`
	FirebaseUID *string   `gorm:"column:firebase_uid;size:128;uniqueIndex:uk_users_firebase_uid"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
