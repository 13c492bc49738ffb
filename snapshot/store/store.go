// This package defines the Store interfaces for reading and writing snapshot
// files to some underlying system, and Store implementations.
package store

import (
	"github.com/bmatcuk/doublestar/v4"
)

// ErrBadPattern is returned by List when the glob pattern is malformed.
var ErrBadPattern = doublestar.ErrBadPattern

// Read-only operations on store.
type StoreRead interface {
	// Check if the named file exists.
	Exists(name string) (bool, error)

	// Read the full contents of the named file.
	Read(name string) ([]byte, error)

	// List the names of stored files matching the doublestar pattern, sorted.
	// An empty pattern matches everything. A store with nothing in it, or whose
	// root does not exist yet, lists as empty.
	List(pattern string) ([]string, error)

	// Get the base location, like a directory, that the Store writes to
	Root() string
}

// Write operations on store.
type StoreWrite interface {
	// Replace the named file with data. Readers see either the old or the new contents.
	Write(name string, data []byte) error

	// Remove the named file. Removing a missing file is an error.
	Remove(name string) error
}

type Store interface {
	StoreRead
	StoreWrite
}
