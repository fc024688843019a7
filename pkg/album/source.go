package album

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"imgurdl/pkg/imgur"
)

// RunMode selects where album identifiers come from
type RunMode int

const (
	// ModeDirect uses identifiers given on the command line
	ModeDirect RunMode = iota
	// ModeFromList reads identifiers from the list file
	ModeFromList
)

func (m RunMode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeFromList:
		return "list"
	default:
		return fmt.Sprintf("RunMode(%d)", int(m))
	}
}

// ParseRunMode accepts "direct"/"args"/"1" and "list"/"2"
func ParseRunMode(s string) (RunMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct", "args", "1":
		return ModeDirect, nil
	case "list", "2":
		return ModeFromList, nil
	default:
		return ModeDirect, fmt.Errorf("unknown mode %q (want direct or list)", s)
	}
}

var (
	// ErrListNotFound is returned when the list file does not exist
	ErrListNotFound = errors.New("album list file not found")
	// ErrListEmpty is returned when the list file has no album links
	ErrListEmpty = errors.New("album list file has no albums")
	// ErrNoAlbums is returned when direct mode has no identifiers
	ErrNoAlbums = errors.New("no album ids given")
)

// ResolveAlbumIDs returns the ordered album identifiers for a run. In list
// mode the list file replaces the direct ids entirely. Duplicates are kept.
func ResolveAlbumIDs(mode RunMode, direct []string, listFile, prefix string) ([]string, error) {
	if mode == ModeFromList {
		return readList(listFile, prefix)
	}

	var ids []string
	for _, id := range direct {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoAlbums
	}
	return ids, nil
}

func readList(path, prefix string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrListNotFound, path)
		}
		return nil, fmt.Errorf("failed to open album list: %w", err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := imgur.AlbumIDFromURL(scanner.Text(), prefix); id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read album list: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrListEmpty, path)
	}
	return ids, nil
}

// DisplayName derives a file base name from an album description: the first
// line, spaces replaced with underscores, double quotes removed. Path
// separators become underscores. An empty result falls back to fallback.
func DisplayName(description, fallback string) string {
	first, _, _ := strings.Cut(description, "\n")
	first = strings.TrimRight(first, "\r")

	name := strings.NewReplacer(
		" ", "_",
		`"`, "",
		"/", "_",
		`\`, "_",
	).Replace(first)

	if name == "" || name == "." || name == ".." {
		return fallback
	}
	return name
}
