package logger

import (
	"context"

	"github.com/rs/zerolog"
	apperrors "imgurdl/pkg/errors"
)

// LogAlbumStart logs the album being downloaded and how many images it has
func LogAlbumStart(l Logger, albumID, name string, images int) {
	l.InfoWithFields("Downloading album", map[string]interface{}{
		"album":  albumID,
		"name":   name,
		"images": images,
	})
}

// LogAlbumFailed logs a remote API failure that caused an album to be skipped
func LogAlbumFailed(l Logger, albumID string, err error) {
	l.WithError(err).ErrorWithFields("Album skipped", map[string]interface{}{
		"album":       albumID,
		"status_code": apperrors.CodeOf(err),
		"category":    string(apperrors.TypeOf(err)),
	})
}

// LogImageSaved logs a completed image download
func LogImageSaved(l Logger, url, filename string, size int64) {
	l.InfoWithFields("File downloaded", map[string]interface{}{
		"url":   url,
		"file":  filename,
		"bytes": size,
	})
}

// LogImageFailed logs a failed image download, distinguishing transport
// failures from HTTP status failures.
func LogImageFailed(l Logger, url string, err error) {
	fields := map[string]interface{}{
		"url":      url,
		"category": string(apperrors.TypeOf(err)),
	}
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeHTTPStatus:
		fields["status_code"] = apperrors.CodeOf(err)
		l.WithError(err).ErrorWithFields("HTTP error downloading image", fields)
	default:
		l.WithError(err).ErrorWithFields("Error downloading image", fields)
	}
}

// LogRename logs that a target name was taken and a suffixed one is used
func LogRename(l Logger, name, path string) {
	l.DebugWithFields("File exists, using suffixed name", map[string]interface{}{
		"name": name,
		"path": path,
	})
}

// LogCacheDeleted logs one deleted cache file
func LogCacheDeleted(l Logger, path string) {
	l.InfoWithFields("Deleting cached file", map[string]interface{}{
		"path": path,
	})
}

// LogCacheEmpty logs that there was nothing to clear
func LogCacheEmpty(l Logger, dir string) {
	l.InfoWithFields("Cache empty", map[string]interface{}{
		"directory": dir,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
