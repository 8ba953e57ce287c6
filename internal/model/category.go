package model

import "time"

type Category struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:120;not null;uniqueIndex:uk_categories_name" json:"name"`
	Slug      string    `gorm:"size:120;not null;uniqueIndex:uk_categories_slug" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}
