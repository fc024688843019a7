package imgur

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the Imgur API v3 root
	BaseURL = "https://api.imgur.com/3"

	// AlbumURLPrefix is the public album link prefix used in list files
	AlbumURLPrefix = "https://imgur.com/a/"

	// DefaultUserAgent is sent when the configuration does not set one
	DefaultUserAgent = "imgurdl/1.0"
)

// AlbumURL returns the metadata endpoint for an album
func AlbumURL(base, albumID string) string {
	return fmt.Sprintf("%s/album/%s", strings.TrimRight(base, "/"), url.PathEscape(albumID))
}

// AlbumImagesURL returns the image list endpoint for an album
func AlbumImagesURL(base, albumID string) string {
	return AlbumURL(base, albumID) + "/images"
}

// EnsureHTTPS rewrites a leading http:// to https://. Any other link is
// returned unchanged.
func EnsureHTTPS(link string) string {
	if strings.HasPrefix(link, "http://") {
		return "https://" + strings.TrimPrefix(link, "http://")
	}
	return link
}

// AlbumIDFromURL strips prefix from a list file line, leaving the album id
func AlbumIDFromURL(line, prefix string) string {
	return strings.TrimPrefix(strings.TrimSpace(line), prefix)
}
