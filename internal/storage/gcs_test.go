package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDownloadURL(t *testing.T) {
	got := DownloadURL("barter.appspot.com", "listings/12.png", "tok-1")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/barter.appspot.com/o/listings%2F12.png?alt=media&token=tok-1", got)
}
