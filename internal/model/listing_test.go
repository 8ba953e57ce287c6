package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusDisplayFor(t *testing.T) {
	tests := []struct {
		name   string
		status ListingStatus
		want   StatusDisplay
	}{
		{"available", ListingStatusAvailable, StatusDisplay{"Available", "green", "bg-green-100 dark:bg-green-800"}},
		{"pending", ListingStatusPending, StatusDisplay{"Trade Pending", "orange", "bg-orange-100 dark:bg-orange-800"}},
		{"completed", ListingStatusCompleted, StatusDisplay{"Completed", "blue", "bg-blue-100 dark:bg-blue-800"}},
		{"legacy value", "sold", StatusDisplay{"Sold", "gray", "bg-gray-100 dark:bg-gray-800"}},
		{"multibyte", "été", StatusDisplay{"Été", "gray", "bg-gray-100 dark:bg-gray-800"}},
		{"empty", "", StatusDisplay{"Unknown", "gray", "bg-gray-100 dark:bg-gray-800"}},
		{"invalid utf8", ListingStatus([]byte{0xff, 'x'}), StatusDisplay{"\xffx", "gray", "bg-gray-100 dark:bg-gray-800"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StatusDisplayFor(tt.status)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.Text)
		})
	}
}

func TestListingStatusValid(t *testing.T) {
	assert.True(t, ListingStatusAvailable.Valid())
	assert.True(t, ListingStatusPending.Valid())
	assert.True(t, ListingStatusCompleted.Valid())
	assert.False(t, ListingStatus("sold").Valid())
	assert.False(t, ListingStatus("").Valid())
	assert.False(t, ListingStatus("Pending").Valid())
}

func TestMessageCounterpart(t *testing.T) {
	m := &Message{FromUserID: 1, ToUserID: 2}
	assert.Equal(t, uint64(2), m.Counterpart(1))
	assert.Equal(t, uint64(1), m.Counterpart(2))
}
