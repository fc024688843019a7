// Package imgurtest provides a fake Imgur API and image host for tests.
package imgurtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// Server simulates the Imgur API v3 album endpoints and serves image files
// over TLS, so https links work against it.
type Server struct {
	server *httptest.Server

	mu          sync.RWMutex
	albums      map[string]albumFixture
	albumErrors map[string]apiFailure
	imageErrors map[string]int
	dropped     map[string]bool
	authHeaders []string

	requestCount int32
}

type albumFixture struct {
	description string
	links       []string
}

type apiFailure struct {
	status  int
	message string
	asText  bool
}

// NewServer starts a fake Imgur server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		albums:      make(map[string]albumFixture),
		albumErrors: make(map[string]apiFailure),
		imageErrors: make(map[string]int),
		dropped:     make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/3/album/", s.handleAlbum)
	mux.HandleFunc("/i/", s.handleImage)

	s.server = httptest.NewTLSServer(mux)
	return s
}

// Close shuts the server down
func (s *Server) Close() { s.server.Close() }

// BaseURL is the API root to configure a client with
func (s *Server) BaseURL() string { return s.server.URL + "/3" }

// HTTPClient returns a client that trusts the server's certificate
func (s *Server) HTTPClient() *http.Client { return s.server.Client() }

// ImageURL returns the https link of a named image
func (s *Server) ImageURL(name string) string {
	return fmt.Sprintf("%s/i/%s.jpg", s.server.URL, name)
}

// InsecureImageURL returns the same link with an http:// scheme
func (s *Server) InsecureImageURL(name string) string {
	return "http://" + strings.TrimPrefix(s.ImageURL(name), "https://")
}

// AddAlbum registers an album whose images are served by this server
func (s *Server) AddAlbum(id, description string, imageNames ...string) {
	links := make([]string, len(imageNames))
	for i, name := range imageNames {
		links[i] = s.ImageURL(name)
	}
	s.AddAlbumLinks(id, description, links)
}

// AddAlbumLinks registers an album with explicit image links
func (s *Server) AddAlbumLinks(id, description string, links []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albums[id] = albumFixture{description: description, links: links}
}

// FailAlbum makes both album endpoints answer with an Imgur error envelope
// whose data.error is an object
func (s *Server) FailAlbum(id string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albumErrors[id] = apiFailure{status: status, message: message}
}

// FailAlbumText is FailAlbum with data.error as a bare string
func (s *Server) FailAlbumText(id string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albumErrors[id] = apiFailure{status: status, message: message, asText: true}
}

// FailImage makes an image answer with the given HTTP status
func (s *Server) FailImage(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageErrors[name] = status
}

// DropImage makes an image request end with a closed connection
func (s *Server) DropImage(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped[name] = true
}

// RequestCount returns the number of requests served
func (s *Server) RequestCount() int { return int(atomic.LoadInt32(&s.requestCount)) }

// AuthHeaders returns the Authorization headers seen on API calls
func (s *Server) AuthHeaders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.authHeaders...)
}

func (s *Server) handleAlbum(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)

	rest := strings.TrimPrefix(r.URL.Path, "/3/album/")
	id, sub, _ := strings.Cut(rest, "/")

	s.mu.Lock()
	s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
	failure, failed := s.albumErrors[id]
	album, found := s.albums[id]
	s.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Client-ID ") {
		writeError(w, r, apiFailure{status: http.StatusForbidden, message: "Authentication required"})
		return
	}
	if failed {
		writeError(w, r, failure)
		return
	}
	if !found {
		writeError(w, r, apiFailure{
			status:  http.StatusNotFound,
			message: fmt.Sprintf("Unable to find an album with the id, %s", id),
		})
		return
	}

	switch sub {
	case "":
		writeData(w, map[string]interface{}{
			"id":           id,
			"title":        "",
			"description":  album.description,
			"link":         "https://imgur.com/a/" + id,
			"images_count": len(album.links),
			"privacy":      "hidden",
		})
	case "images":
		images := make([]map[string]interface{}, len(album.links))
		for i, link := range album.links {
			images[i] = map[string]interface{}{
				"id":     fmt.Sprintf("%s%d", id, i),
				"type":   "image/jpeg",
				"width":  ImageSize,
				"height": ImageSize,
				"link":   link,
			}
		}
		writeData(w, images)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/i/"), ".jpg")

	s.mu.RLock()
	status := s.imageErrors[name]
	drop := s.dropped[name]
	s.mu.RUnlock()

	if drop {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
		panic(http.ErrAbortHandler)
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(ImageBytes(name))
}

// ImageSize is the edge length of every served image
const ImageSize = 32

// ImageBytes returns the JPEG the server serves for name. The colour is
// derived from the name so different images differ.
func ImageBytes(name string) []byte {
	var sum byte
	for i := 0; i < len(name); i++ {
		sum += name[i] * byte(i+1)
	}
	img := image.NewRGBA(image.Rect(0, 0, ImageSize, ImageSize))
	c := color.RGBA{R: sum, G: 255 - sum, B: sum / 2, A: 255}
	for y := 0; y < ImageSize; y++ {
		for x := 0; x < ImageSize; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func writeData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":    data,
		"success": true,
		"status":  http.StatusOK,
	})
}

func writeError(w http.ResponseWriter, r *http.Request, f apiFailure) {
	var errValue interface{} = f.message
	if !f.asText {
		errValue = map[string]interface{}{
			"code":    f.status,
			"message": f.message,
			"type":    "ImgurException",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{
			"error":   errValue,
			"request": r.URL.Path,
			"method":  r.Method,
		},
		"success": false,
		"status":  f.status,
	})
}
