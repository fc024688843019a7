package album

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imgurdl/internal/imgurtest"
	apperrors "imgurdl/pkg/errors"
	"imgurdl/pkg/imgur"
	"imgurdl/pkg/logger"
	"imgurdl/pkg/storage"
)

type harness struct {
	srv   *imgurtest.Server
	dir   string
	log   *logger.TestLogger
	store *storage.Manager
	flow  *Workflow
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := imgurtest.NewServer()
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger()
	client, err := imgur.NewClient(imgur.Options{
		ClientID:   "test-client",
		BaseURL:    srv.BaseURL(),
		HTTPClient: srv.HTTPClient(),
	}, log)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "images")
	store, err := storage.NewManager(dir, ".jpg", log)
	require.NoError(t, err)

	return &harness{
		srv:   srv,
		dir:   dir,
		log:   log,
		store: store,
		flow:  NewWorkflow(Options{Client: client, Store: store, Logger: log}),
	}
}

func (h *harness) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunSavesImagesInAlbumOrder(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("ABC123", "My Cool Album\nmore text", "one", "two", "three")

	summary, err := h.flow.Run(context.Background(), []string{"ABC123"})
	require.NoError(t, err)

	assert.Equal(t, []string{"My_Cool_Album.jpg", "My_Cool_Album_1.jpg", "My_Cool_Album_2.jpg"}, h.files(t))
	var total int64
	for i, name := range []string{"one", "two", "three"} {
		data, err := os.ReadFile(summary.Albums[0].Saved[i])
		require.NoError(t, err)
		assert.Equal(t, imgurtest.ImageBytes(name), data, name)
		total += int64(len(data))
	}
	assert.Equal(t, total, summary.Bytes())

	require.Len(t, summary.Albums, 1)
	assert.Equal(t, "My_Cool_Album", summary.Albums[0].Name)
	assert.Equal(t, 3, summary.Albums[0].Images)
	assert.Equal(t, 3, summary.SavedCount())

	start := h.log.FindMessages("Downloading album")
	require.Len(t, start, 1)
	assert.Equal(t, "ABC123", start[0].Field("album"))
	assert.Equal(t, 3, start[0].Field("images"))
	assert.Len(t, h.log.FindMessages("File downloaded"), 3)
}

func TestRunClearsCacheFirst(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("A", "Album", "x")
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "Album.jpg"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "keep.txt"), []byte("keep"), 0644))

	summary, err := h.flow.Run(context.Background(), []string{"A"})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(h.dir, "Album.jpg")}, summary.Cleared)
	assert.Equal(t, []string{"Album.jpg", "keep.txt"}, h.files(t))
	data, err := os.ReadFile(filepath.Join(h.dir, "Album.jpg"))
	require.NoError(t, err)
	assert.Equal(t, imgurtest.ImageBytes("x"), data)
}

func TestRunEmptyCacheIsLogged(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("A", "Album")

	summary, err := h.flow.Run(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, summary.Cleared)
	assert.True(t, h.log.HasMessage("Cache empty"))
	assert.Empty(t, h.files(t))
}

func TestRunNeverReusesAPath(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("A", "Album", "x", "y")

	// same name twice in one run: the second album must not reuse the first's names
	summary, err := h.flow.Run(context.Background(), []string{"A", "A"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Album.jpg", "Album_1.jpg", "Album_2.jpg", "Album_3.jpg"}, h.files(t))
	assert.Equal(t, []string{
		filepath.Join(h.dir, "Album_2.jpg"),
		filepath.Join(h.dir, "Album_3.jpg"),
	}, summary.Albums[1].Saved)
}

func TestRunRewritesHTTPLinks(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbumLinks("A", "Album", []string{h.srv.InsecureImageURL("x")})

	summary, err := h.flow.Run(context.Background(), []string{"A"})
	require.NoError(t, err)
	require.Equal(t, 1, summary.SavedCount())

	saved := h.log.FindMessages("File downloaded")
	require.Len(t, saved, 1)
	assert.Equal(t, h.srv.ImageURL("x"), saved[0].Field("url"))
	assert.True(t, strings.HasPrefix(saved[0].Field("url").(string), "https://"))
}

func TestRunSkipsAlbumOnAPIError(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("good", "Good", "g")
	h.srv.FailAlbum("bad", http.StatusInternalServerError, "Imgur is over capacity")

	summary, err := h.flow.Run(context.Background(), []string{"missing", "bad", "good"})
	require.NoError(t, err)
	require.Len(t, summary.Albums, 3)

	assert.True(t, summary.Albums[0].Skipped())
	assert.Equal(t, 404, apperrors.CodeOf(summary.Albums[0].Err))
	assert.True(t, summary.Albums[1].Skipped())
	assert.Contains(t, summary.Albums[1].Err.Error(), "Imgur is over capacity")
	assert.False(t, summary.Albums[2].Skipped())
	assert.Equal(t, 2, summary.SkippedCount())

	assert.Equal(t, []string{"Good.jpg"}, h.files(t))

	skipped := h.log.FindMessages("Album skipped")
	require.Len(t, skipped, 2)
	assert.Equal(t, 500, skipped[1].Field("status_code"))
	assert.Len(t, h.log.FindMessages("Downloading album"), 1, "skipped albums are not announced")
}

func TestRunEmptyAlbum(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("empty", "Nothing here")
	h.srv.AddAlbum("full", "Cats", "one")

	summary, err := h.flow.Run(context.Background(), []string{"empty", "full"})
	require.NoError(t, err)
	require.Len(t, summary.Albums, 2)

	empty := summary.Albums[0]
	assert.False(t, empty.Skipped())
	assert.Equal(t, "Nothing_here", empty.Name)
	assert.Zero(t, empty.Images)
	assert.Empty(t, empty.Saved)
	assert.Zero(t, empty.Failed)

	assert.Equal(t, []string{"Cats.jpg"}, h.files(t))
	start := h.log.FindMessages("Downloading album")
	require.Len(t, start, 2)
	assert.Equal(t, 0, start[0].Field("images"))
}

func TestRunAlbumWithNoImageList(t *testing.T) {
	store := &brokenStore{}
	flow := NewWorkflow(Options{Client: &fakeClient{}, Store: store, Logger: logger.NewNopLogger()})

	summary, err := flow.Run(context.Background(), []string{"A"})
	require.NoError(t, err)
	require.Len(t, summary.Albums, 1)
	assert.False(t, summary.Albums[0].Skipped())
	assert.Zero(t, summary.Albums[0].Images)
	assert.Zero(t, store.saves)
}

func TestRunContinuesAfterImageFailures(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("A", "Album", "ok1", "gone", "reset", "ok2")
	h.srv.FailImage("gone", http.StatusNotFound)
	h.srv.DropImage("reset")

	summary, err := h.flow.Run(context.Background(), []string{"A"})
	require.NoError(t, err)

	// failed fetches leave nothing on disk, so their names stay free
	assert.Equal(t, []string{"Album.jpg", "Album_1.jpg"}, h.files(t))
	assert.Equal(t, 2, summary.Albums[0].Failed)
	assert.Equal(t, 2, summary.FailedCount())

	httpErrs := h.log.FindMessages("HTTP error downloading image")
	require.Len(t, httpErrs, 1)
	assert.Equal(t, 404, httpErrs[0].Field("status_code"))
	assert.Len(t, h.log.FindMessages("Error downloading image"), 1)
}

type fakeClient struct {
	images []imgur.Image
}

func (f *fakeClient) GetAlbum(ctx context.Context, id string) (*imgur.Album, error) {
	return &imgur.Album{ID: id, Description: "Fake"}, nil
}

func (f *fakeClient) GetAlbumImages(ctx context.Context, id string) ([]imgur.Image, error) {
	return f.images, nil
}

func (f *fakeClient) Open(ctx context.Context, link string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("data")), nil
}

type brokenStore struct {
	saves int
}

func (b *brokenStore) ClearCache() ([]string, error)           { return nil, nil }
func (b *brokenStore) ResolvePath(name string) (string, error) { return "/nowhere/" + name + ".jpg", nil }
func (b *brokenStore) Save(r io.Reader, path string) (int64, error) {
	b.saves++
	return 0, apperrors.Wrap(apperrors.ErrorTypeFilesystem, errors.New("disk full"), "")
}

func TestRunStopsOnFilesystemError(t *testing.T) {
	store := &brokenStore{}
	flow := NewWorkflow(Options{
		Client: &fakeClient{images: []imgur.Image{{Link: "https://x/1.jpg"}, {Link: "https://x/2.jpg"}}},
		Store:  store,
		Logger: logger.NewNopLogger(),
	})

	summary, err := flow.Run(context.Background(), []string{"A", "B"})
	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.Equal(t, 1, store.saves)
	assert.Len(t, summary.Albums, 1)
}

type clearFailStore struct{ brokenStore }

func (c *clearFailStore) ClearCache() ([]string, error) {
	return nil, apperrors.New(apperrors.ErrorTypeFilesystem, 0, "permission denied")
}

func TestRunStopsWhenCacheClearFails(t *testing.T) {
	flow := NewWorkflow(Options{Client: &fakeClient{}, Store: &clearFailStore{}, Logger: logger.NewNopLogger()})

	summary, err := flow.Run(context.Background(), []string{"A"})
	require.Error(t, err)
	assert.Empty(t, summary.Albums)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	h := newHarness(t)
	h.srv.AddAlbum("A", "Album", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.flow.Run(ctx, []string{"A"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.files(t))
}
