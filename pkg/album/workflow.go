package album

import (
	"context"
	"io"
	"path/filepath"

	apperrors "imgurdl/pkg/errors"
	"imgurdl/pkg/imgur"
	"imgurdl/pkg/logger"
)

// Client is the part of the Imgur API the workflow consumes
type Client interface {
	GetAlbum(ctx context.Context, albumID string) (*imgur.Album, error)
	GetAlbumImages(ctx context.Context, albumID string) ([]imgur.Image, error)
	Open(ctx context.Context, link string) (io.ReadCloser, error)
}

// Store is the target directory the workflow writes into
type Store interface {
	ClearCache() ([]string, error)
	ResolvePath(name string) (string, error)
	Save(r io.Reader, path string) (int64, error)
}

// Options holds everything a Workflow needs. Nothing is read from globals.
type Options struct {
	Client Client
	Store  Store
	Logger logger.Logger
}

// Workflow downloads albums one after another, one image at a time
type Workflow struct {
	client Client
	store  Store
	logger logger.Logger
}

// NewWorkflow creates a Workflow from opts
func NewWorkflow(opts Options) *Workflow {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	return &Workflow{client: opts.Client, store: opts.Store, logger: log}
}

// AlbumResult is the outcome of one album
type AlbumResult struct {
	ID     string
	Name   string
	Images int
	Saved  []string
	Bytes  int64
	Failed int
	// Err is set when the album was skipped because the API call failed
	Err error
}

// Skipped reports whether the album was skipped
func (r *AlbumResult) Skipped() bool {
	return r.Err != nil
}

// Summary is the outcome of a run
type Summary struct {
	Cleared []string
	Albums  []*AlbumResult
}

// SavedCount returns the number of files written
func (s *Summary) SavedCount() int {
	n := 0
	for _, a := range s.Albums {
		n += len(a.Saved)
	}
	return n
}

// FailedCount returns the number of images that could not be fetched
func (s *Summary) FailedCount() int {
	n := 0
	for _, a := range s.Albums {
		n += a.Failed
	}
	return n
}

// Bytes returns the total size of the files written
func (s *Summary) Bytes() int64 {
	var n int64
	for _, a := range s.Albums {
		n += a.Bytes
	}
	return n
}

// SkippedCount returns the number of albums skipped on API errors
func (s *Summary) SkippedCount() int {
	n := 0
	for _, a := range s.Albums {
		if a.Skipped() {
			n++
		}
	}
	return n
}

// Run clears the cache and downloads every album in ids, in order.
// API failures skip the album and network or HTTP failures skip the image;
// both are recorded in the summary. Filesystem failures end the run and are
// returned together with the partial summary.
func (w *Workflow) Run(ctx context.Context, ids []string) (*Summary, error) {
	summary := &Summary{}

	cleared, err := w.store.ClearCache()
	summary.Cleared = cleared
	if err != nil {
		return summary, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result := &AlbumResult{ID: id}
		summary.Albums = append(summary.Albums, result)

		if err := w.downloadAlbum(ctx, result); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (w *Workflow) downloadAlbum(ctx context.Context, result *AlbumResult) error {
	images, err := w.client.GetAlbumImages(ctx, result.ID)
	if err != nil {
		return w.skip(ctx, result, err)
	}
	meta, err := w.client.GetAlbum(ctx, result.ID)
	if err != nil {
		return w.skip(ctx, result, err)
	}

	result.Name = DisplayName(meta.Description, result.ID)
	result.Images = len(images)
	logger.LogAlbumStart(w.logger, result.ID, result.Name, len(images))

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return err
		}

		link := imgur.EnsureHTTPS(img.Link)
		path, err := w.store.ResolvePath(result.Name)
		if err != nil {
			return err
		}

		n, saved, err := w.fetchFile(ctx, link, path)
		if err != nil {
			return err
		}
		if saved {
			result.Saved = append(result.Saved, path)
			result.Bytes += n
		} else {
			result.Failed++
		}
	}
	return nil
}

// skip records an API failure on the album. A cancelled context ends the run.
func (w *Workflow) skip(ctx context.Context, result *AlbumResult, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	result.Err = err
	logger.LogAlbumFailed(w.logger, result.ID, err)
	return nil
}

// fetchFile downloads link to path. It returns false with a nil error when
// the image failed in a way that should not stop the run.
func (w *Workflow) fetchFile(ctx context.Context, link, path string) (int64, bool, error) {
	body, err := w.client.Open(ctx, link)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, ctxErr
		}
		logger.LogImageFailed(w.logger, link, err)
		return 0, false, nil
	}
	defer body.Close()

	n, err := w.store.Save(body, path)
	if err != nil {
		if apperrors.IsFatal(err) {
			return 0, false, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, false, ctxErr
		}
		logger.LogImageFailed(w.logger, link, err)
		return 0, false, nil
	}

	logger.LogImageSaved(w.logger, link, filepath.Base(path), n)
	return n, true, nil
}
