package imgur

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureHTTPS(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://i.imgur.com/abc.jpg", "https://i.imgur.com/abc.jpg"},
		{"https://i.imgur.com/abc.jpg", "https://i.imgur.com/abc.jpg"},
		{"HTTP://i.imgur.com/abc.jpg", "HTTP://i.imgur.com/abc.jpg"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EnsureHTTPS(tt.in), tt.in)
	}
}

func TestAlbumIDFromURL(t *testing.T) {
	assert.Equal(t, "ABC123", AlbumIDFromURL("https://imgur.com/a/ABC123", AlbumURLPrefix))
	assert.Equal(t, "ABC123", AlbumIDFromURL("  https://imgur.com/a/ABC123\r", AlbumURLPrefix))
	assert.Equal(t, "XYZ", AlbumIDFromURL("XYZ", AlbumURLPrefix))
}

func TestAlbumURLs(t *testing.T) {
	assert.Equal(t, "https://api.imgur.com/3/album/ABC", AlbumURL(BaseURL, "ABC"))
	assert.Equal(t, "https://api.imgur.com/3/album/ABC/images", AlbumImagesURL(BaseURL+"/", "ABC"))
}
