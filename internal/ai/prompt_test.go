package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleFor(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"electronics", "tech-gadget"},
		{" Sports-Equipment ", "outdoor-gear"},
		{"clothing", "fashion-look"},
		{"", "fashion-look"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StyleFor(tt.slug), tt.slug)
	}
}

func TestBuildListingPrompt(t *testing.T) {
	p := BuildListingPrompt("  Mountain bike ", "sports-equipment")
	assert.True(t, strings.HasPrefix(p, basePrompt))
	assert.Contains(t, p, "outdoor-gear")
	assert.True(t, strings.HasSuffix(p, "Item: Mountain bike"))
}

type stubGenerator struct {
	img []byte
	err error
}

func (s stubGenerator) Generate(context.Context, string, string) ([]byte, error) {
	return s.img, s.err
}

func TestFallback(t *testing.T) {
	ctx := context.Background()

	img, err := Fallback{Primary: stubGenerator{img: []byte("ai")}, Secondary: stubGenerator{img: []byte("stock")}}.Generate(ctx, "s", "p")
	require.NoError(t, err)
	assert.Equal(t, []byte("ai"), img)

	img, err = Fallback{Primary: stubGenerator{err: errors.New("quota")}, Secondary: stubGenerator{img: []byte("stock")}}.Generate(ctx, "s", "p")
	require.NoError(t, err)
	assert.Equal(t, []byte("stock"), img)

	img, err = Fallback{Secondary: stubGenerator{img: []byte("stock")}}.Generate(ctx, "s", "p")
	require.NoError(t, err)
	assert.Equal(t, []byte("stock"), img)
}

func TestPlaceholderClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/seed/listing-7/800/600" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	c := NewPlaceholderClient(srv.URL, srv.Client())
	img, err := c.Generate(context.Background(), "listing-7", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), img)

	_, err = c.Generate(context.Background(), "missing", "")
	assert.Error(t, err)
}
