package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/assertsnap/os/temp"
)

func makeTestStore(t *testing.T) (*FileStore, *temp.TempDir) {
	tmp, err := temp.NewTempDir("", "testFileStore")
	require.NoError(t, err)
	t.Cleanup(func() { tmp.Cleanup() })
	return MakeFileStore(tmp.Path("snapshots")), tmp
}

func TestWriteCreatesDirLazily(t *testing.T) {
	s, tmp := makeTestStore(t)

	_, err := os.Stat(tmp.Path("snapshots"))
	assert.True(t, os.IsNotExist(err), "dir should not exist before first write")

	ok, err := s.Exists("a.snapshot")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write("a.snapshot", []byte("hello\n")))
	ok, err = s.Exists("a.snapshot")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.Read("a.snapshot")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Equal(t, tmp.Path("snapshots"), s.Root())
}

func TestWriteOverwritesAndLeavesNoTempFiles(t *testing.T) {
	s, _ := makeTestStore(t)

	require.NoError(t, s.Write("a.snapshot", []byte("one")))
	require.NoError(t, s.Write("a.snapshot", []byte("two")))

	data, err := s.Read("a.snapshot")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.snapshot", entries[0].Name())
}

func TestRejectsPathNames(t *testing.T) {
	s, _ := makeTestStore(t)

	for _, name := range []string{"", "../x", "a/b", `a\b`, ".."} {
		assert.Error(t, s.Write(name, []byte("x")), name)
		_, err := s.Read(name)
		assert.Error(t, err, name)
		_, err = s.Exists(name)
		assert.Error(t, err, name)
		assert.Error(t, s.Remove(name), name)
	}
}

func TestRemove(t *testing.T) {
	s, _ := makeTestStore(t)

	err := s.Remove("missing.snapshot")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, s.Write("a.snapshot", []byte("x")))
	require.NoError(t, s.Remove("a.snapshot"))
	ok, err := s.Exists("a.snapshot")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	s, _ := makeTestStore(t)

	names, err := s.List("")
	require.NoError(t, err)
	assert.Empty(t, names, "missing dir lists as empty")

	for _, n := range []string{"zeta.snapshot", "alpha.snapshot", "mid.snapshot", "notes.txt"} {
		require.NoError(t, s.Write(n, []byte(n)))
	}
	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), "sub.snapshot"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), ".pending.tmp"), nil, 0644))

	names, err = s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.snapshot", "mid.snapshot", "notes.txt", "zeta.snapshot"}, names)

	names, err = s.List("*.snapshot")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.snapshot", "mid.snapshot", "zeta.snapshot"}, names)

	names, err = s.List("{alpha,zeta}*")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.snapshot", "zeta.snapshot"}, names)
}

func TestListBadPattern(t *testing.T) {
	s, _ := makeTestStore(t)
	_, err := s.List("[abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadPattern))
}

func TestFakeStore(t *testing.T) {
	f := &FakeStore{}
	ok, err := f.Exists("a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.Write("b", []byte("2")))
	require.NoError(t, f.Write("a", []byte("1")))
	names, err := f.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, f.Remove("a"))
	assert.True(t, errors.Is(f.Remove("a"), os.ErrNotExist))

	f.Err = errors.New("disk on fire")
	_, err = f.Read("b")
	assert.Equal(t, f.Err, err)
}
