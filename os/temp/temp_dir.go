// Package temp makes temporary directories for tests.
// Tests create their snapshot directories through here so every temp tree
// is rooted and cleaned up the same way.
package temp

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Create a new TempDir in directory dir with prefix string.
func NewTempDir(dir, prefix string) (*TempDir, error) {
	p, err := os.MkdirTemp(dir, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "temp.NewTempDir: couldn't MkdirTemp")
	}
	return &TempDir{Dir: p}, nil
}

// TempDir is a temporary directory.
type TempDir struct {
	Dir string
}

// Path returns the path of name under d without creating anything.
func (d *TempDir) Path(name string) string {
	return filepath.Join(d.Dir, name)
}

// Cleanup removes d and everything under it.
func (d *TempDir) Cleanup() error {
	return os.RemoveAll(d.Dir)
}
