package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusPending   ListingStatus = "pending"
	ListingStatusCompleted ListingStatus = "completed"
)

// Valid reports whether s is one of the statuses a listing may be set to.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusAvailable, ListingStatusPending, ListingStatusCompleted:
		return true
	}
	return false
}

type Listing struct {
	ID         uint64        `gorm:"primaryKey;autoIncrement"`
	TradeWhat  string        `gorm:"column:trade_what;size:255;not null"`
	ForWhat    string        `gorm:"column:for_what;size:255;not null"`
	Status     ListingStatus `gorm:"column:status;size:32;not null;default:available"`
	ByUserID   uint64        `gorm:"column:by_user_id;not null;index"`
	CategoryID *uint64       `gorm:"column:category_id;index"`
	ImageURL   *string       `gorm:"column:image_url;size:512"`
	CreatedAt  time.Time     `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime"`

	Owner    *User     `gorm:"foreignKey:ByUserID"`
	Category *Category `gorm:"foreignKey:CategoryID"`
}

func (Listing) TableName() string {
	return "listings"
}

// StatusDisplay is the badge shown next to a listing.
type StatusDisplay struct {
	Text    string `json:"text"`
	Color   string `json:"color"`
	BgColor string `json:"bgColor"`
}

var statusDisplays = map[ListingStatus]StatusDisplay{
	ListingStatusAvailable: {Text: "Available", Color: "green", BgColor: "bg-green-100 dark:bg-green-800"},
	ListingStatusPending:   {Text: "Trade Pending", Color: "orange", BgColor: "bg-orange-100 dark:bg-orange-800"},
	ListingStatusCompleted: {Text: "Completed", Color: "blue", BgColor: "bg-blue-100 dark:bg-blue-800"},
}

// StatusDisplayFor maps a stored status to its badge. Values outside the
// known set (legacy rows, manual edits) get a gray badge with the raw value.
func StatusDisplayFor(status ListingStatus) StatusDisplay {
	if d, ok := statusDisplays[status]; ok {
		return d
	}
	return StatusDisplay{
		Text:    capitalize(string(status)),
		Color:   "gray",
		BgColor: "bg-gray-100 dark:bg-gray-800",
	}
}

func (l *Listing) StatusDisplay() StatusDisplay {
	return StatusDisplayFor(l.Status)
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
