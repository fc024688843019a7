package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	apperrors "imgurdl/pkg/errors"
	"imgurdl/pkg/logger"
)

// LockFileName is created in the target directory while a run holds it
const LockFileName = ".imgurdl.lock"

// Manager owns the target directory: cache clearing, collision-free path
// resolution and atomic saves all act on the same directory.
type Manager struct {
	dir    string
	ext    string
	lock   *flock.Flock
	logger logger.Logger
}

// NewManager creates a storage manager for dir, creating dir if needed.
// ext is the file extension including the dot, e.g. ".jpg".
func NewManager(dir, ext string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to create output directory: %v", err))
	}
	return &Manager{
		dir:    dir,
		ext:    ext,
		lock:   flock.New(filepath.Join(dir, LockFileName)),
		logger: log,
	}, nil
}

// Dir returns the target directory
func (m *Manager) Dir() string {
	return m.dir
}

// Lock takes an exclusive, non-blocking lock on the target directory
func (m *Manager) Lock() error {
	locked, err := m.lock.TryLock()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to lock %s: %v", m.dir, err))
	}
	if !locked {
		return apperrors.New(apperrors.ErrorTypeFilesystem, 0,
			fmt.Sprintf("another imgurdl run is using %s", m.dir))
	}
	return nil
}

// Unlock releases the directory lock. The lock file stays so every run
// locks the same inode.
func (m *Manager) Unlock() error {
	if !m.lock.Locked() {
		return nil
	}
	if err := m.lock.Unlock(); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, "")
	}
	return nil
}

// ClearCache deletes every file with the manager's extension in the target
// directory and returns the deleted paths. Any deletion failure is returned.
func (m *Manager) ClearCache() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(globEscape(m.dir), "*"+m.ext))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, "")
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		logger.LogCacheEmpty(m.logger, m.dir)
		return nil, nil
	}

	deleted := make([]string, 0, len(matches))
	for _, path := range matches {
		logger.LogCacheDeleted(m.logger, path)
		if err := os.Remove(path); err != nil {
			return deleted, apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to delete %s: %v", path, err))
		}
		deleted = append(deleted, path)
	}
	return deleted, nil
}

// ResolvePath returns the first free path among <dir>/<name><ext>,
// <dir>/<name>_1<ext>, <dir>/<name>_2<ext>, ... checking the disk each time.
func (m *Manager) ResolvePath(name string) (string, error) {
	path := filepath.Join(m.dir, name+m.ext)
	for n := 1; ; n++ {
		exists, err := fileExists(path)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, "")
		}
		if !exists {
			return path, nil
		}
		next := filepath.Join(m.dir, fmt.Sprintf("%s_%d%s", name, n, m.ext))
		logger.LogRename(m.logger, name, next)
		path = next
	}
}

// Save writes r to path atomically and returns the number of bytes written.
// Nothing is left at path when Save fails. A failure reading r is reported
// as a network error; any other failure is a filesystem error.
func (m *Manager) Save(r io.Reader, path string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".imgurdl-*.part")
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to create temporary file: %v", err))
	}
	tmpName := tmp.Name()

	src := &readRecorder{r: r}
	n, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()

	switch {
	case src.err != nil:
		os.Remove(tmpName)
		return n, apperrors.Wrap(apperrors.ErrorTypeNetwork, src.err, "")
	case copyErr != nil:
		os.Remove(tmpName)
		return n, apperrors.Wrap(apperrors.ErrorTypeFilesystem, copyErr, fmt.Sprintf("failed to write %s: %v", path, copyErr))
	case closeErr != nil:
		os.Remove(tmpName)
		return n, apperrors.Wrap(apperrors.ErrorTypeFilesystem, closeErr, fmt.Sprintf("failed to close file: %v", closeErr))
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return n, apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to rename temporary file: %v", err))
	}
	return n, nil
}

// readRecorder remembers the first non-EOF error from its reader
type readRecorder struct {
	r   io.Reader
	err error
}

func (rr *readRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF && rr.err == nil {
		rr.err = err
	}
	return n, err
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// globEscape escapes glob metacharacters in a literal directory path.
// Windows paths use backslash as separator, so nothing is escaped there.
func globEscape(dir string) string {
	if filepath.Separator == '\\' {
		return dir
	}
	out := make([]rune, 0, len(dir))
	for _, r := range dir {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
