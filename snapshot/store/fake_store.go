package store

import (
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Implements Store. FakeStore just keeps references to data that would be stored.
// If Err is set, every operation fails with it.
type FakeStore struct {
	Files map[string][]byte
	Err   error
}

func (f *FakeStore) Exists(name string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.Files[name]
	return ok, nil
}

func (f *FakeStore) Read(name string) ([]byte, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	b, ok := f.Files[name]
	if !ok {
		return nil, errors.Wrapf(os.ErrNotExist, "reading %s", name)
	}
	return b, nil
}

func (f *FakeStore) Write(name string, data []byte) error {
	if f.Err != nil {
		return f.Err
	}
	// Initialize map on first entry
	if f.Files == nil {
		f.Files = make(map[string][]byte)
	}
	f.Files[name] = append([]byte(nil), data...)
	return nil
}

func (f *FakeStore) Remove(name string) error {
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.Files[name]; !ok {
		return errors.Wrapf(os.ErrNotExist, "removing %s", name)
	}
	delete(f.Files, name)
	return nil
}

func (f *FakeStore) List(pattern string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	names := []string{}
	for name := range f.Files {
		if pattern != "" {
			if ok, err := doublestar.Match(pattern, name); err != nil {
				return nil, errors.Wrapf(ErrBadPattern, "list pattern %q", pattern)
			} else if !ok {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeStore) Root() string { return "" }
