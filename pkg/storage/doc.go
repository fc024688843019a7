// Package storage manages the download directory.
//
// A Manager is bound to one directory and one file extension. It clears
// cached files before a run, resolves collision-free target paths by
// appending _1, _2, ... to a base name, and saves downloads atomically
// through a temporary file that is renamed into place. An exclusive
// flock-based lock file keeps two runs from sharing a directory.
//
//	m, err := storage.NewManager("images", ".jpg", log)
//	if err := m.Lock(); err != nil { ... }
//	defer m.Unlock()
//	deleted, err := m.ClearCache()
//	path, err := m.ResolvePath("My_Album")
//	n, err := m.Save(body, path)
package storage
