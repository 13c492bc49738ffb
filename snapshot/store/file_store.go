package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	uuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const tmpSuffix = ".tmp"

// MakeFileStore makes a store rooted at dir. The directory is not created
// until the first Write.
func MakeFileStore(dir string) *FileStore {
	log.Debugf("Making new FileStore at dir: %s", dir)
	return &FileStore{dir: dir}
}

type FileStore struct {
	dir string
}

func (s *FileStore) Exists(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %s", name)
}

func (s *FileStore) Read(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	return data, nil
}

func (s *FileStore) Write(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrapf(err, "creating snapshot dir %s", s.dir)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return errors.Wrap(err, "generating temp name")
	}
	tmpPath := filepath.Join(s.dir, "."+id.String()+tmpSuffix)
	path := filepath.Join(s.dir, name)
	log.WithFields(
		log.Fields{
			"name": name,
			"path": path,
			"tmp":  tmpPath,
			"size": len(data),
		}).Debug("Writing snapshot file")

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "writing %s", name)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "renaming into place %s", name)
	}
	return nil
}

func (s *FileStore) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return errors.Wrapf(err, "removing %s", name)
	}
	log.WithFields(
		log.Fields{
			"name": name,
			"dir":  s.dir,
		}).Debug("Removed snapshot file")
	return nil
}

func (s *FileStore) List(pattern string) ([]string, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, errors.Wrapf(ErrBadPattern, "list pattern %q", pattern)
	}
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "listing %s", s.dir)
	}

	names := []string{}
	for _, e := range entries {
		name := e.Name()
		// Skip in-flight atomic writes and anything that isn't a plain file.
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, name); !ok {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Root() string {
	return s.dir
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.Errorf("invalid store name %q: must be a plain file name", name)
	}
	return nil
}
