package snapshot

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/luci/go-render/render"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/assertsnap/common/os/exec"
	"github.com/twitter/assertsnap/common/stats"
	"github.com/twitter/assertsnap/snapshot/store"
)

const (
	DefaultDir         = ".snapshots"
	DefaultTimeout     = 30 * time.Second
	DefaultKillTimeout = 5 * time.Second
)

// Config configures a Manager.
type Config struct {
	// Directory holding snapshot files. Ignored if Store is set.
	Dir string

	// Optional backing store. Defaults to a FileStore rooted at Dir.
	Store store.Store

	// If set, command output is copied here as it is produced.
	Stream io.Writer

	// Defaults to a nil receiver.
	Stat stats.StatsReceiver

	// Defaults to the real os/exec.
	Exec exec.OsExec

	// How long a timed out process group gets between SIGTERM and SIGKILL.
	KillTimeout time.Duration
}

// Options are the per-call knobs of Capture, Verify and Update.
type Options struct {
	// Explicit snapshot name, without extension. Empty derives one from the command
	// unless NameSet is true.
	Name string

	// NameSet marks Name as given by the caller, so an empty Name is rejected.
	NameSet bool

	// Remove ANSI escape sequences from the output before storing or comparing.
	StripANSI bool

	// Zero or negative means the command may run forever.
	Timeout time.Duration
}

// Comparison is the result of Verify.
type Comparison struct {
	Matches  bool
	Expected string
	Actual   string
	// File name of the snapshot compared against.
	Name string
}

// Manager captures and checks snapshots of command output.
type Manager struct {
	store       store.Store
	stream      io.Writer
	stat        stats.StatsReceiver
	execer      exec.OsExec
	killTimeout time.Duration
}

func NewManager(c Config) *Manager {
	m := &Manager{
		store:       c.Store,
		stream:      c.Stream,
		stat:        c.Stat,
		execer:      c.Exec,
		killTimeout: c.KillTimeout,
	}
	if m.store == nil {
		dir := c.Dir
		if dir == "" {
			dir = DefaultDir
		}
		m.store = store.MakeFileStore(dir)
	}
	if m.stat == nil {
		m.stat = stats.NilStatsReceiver()
	}
	m.stat = m.stat.Scope("snapshot").Precision(time.Millisecond)
	if m.execer == nil {
		m.execer = exec.NewOsExec()
	}
	if m.killTimeout <= 0 {
		m.killTimeout = DefaultKillTimeout
	}
	return m
}

// Dir is where snapshots are stored.
func (m *Manager) Dir() string {
	return m.store.Root()
}

// ResolveName returns the file name a command's snapshot is stored under.
func (m *Manager) ResolveName(argv []string, explicit string) (string, error) {
	return ResolveName(argv, explicit)
}

func (m *Manager) resolveName(argv []string, opts Options) (string, error) {
	if opts.NameSet && opts.Name == "" {
		return "", validateName(opts.Name)
	}
	return m.ResolveName(argv, opts.Name)
}

// Execute runs argv and returns its stdout followed by its stderr. A non-zero exit
// status is not an error. If the command outlives timeout, or ctx is done first,
// its whole process group is killed before Execute returns.
func (m *Manager) Execute(ctx context.Context, argv []string, timeout time.Duration, stripANSI bool) (string, error) {
	if len(argv) == 0 {
		return "", ErrEmptyCommand
	}

	cmd := m.execer.Command(argv[0], argv[1:]...)
	latency := m.stat.Latency(stats.CommandLatency_ms).Time()
	rr := exec.RunKillableCommand(cmd, ctx.Done(), m.killTimeout, m.stream, timeout)
	latency.Stop()

	if !rr.Started {
		m.stat.Counter(stats.CommandNotFoundCounter).Inc(1)
		return "", &CommandNotFoundError{Command: argv[0], Err: rr.Error}
	}
	if rr.Error == exec.TimeoutError {
		m.stat.Counter(stats.CommandTimeoutCounter).Inc(1)
		return "", &CommandTimeoutError{Timeout: timeout}
	}
	if err := ctx.Err(); err != nil {
		return "", errors.Wrapf(err, "running %s", argv[0])
	}
	if rr.Error != nil {
		if _, ok := rr.Error.(exec.ExitError); !ok {
			return "", errors.Wrapf(rr.Error, "running %s", argv[0])
		}
	}

	log.WithFields(
		log.Fields{
			"command":  argv[0],
			"exitCode": rr.ProcessState.ExitCode(),
			"stdout":   len(rr.Stdout),
			"stderr":   len(rr.Stderr),
		}).Debug("Command finished")

	output := string(rr.Stdout) + string(rr.Stderr)
	if stripANSI {
		output = StripANSI(output)
	}
	return output, nil
}

// Capture runs argv and stores its output, replacing any existing snapshot.
// It returns the snapshot's file name.
func (m *Manager) Capture(ctx context.Context, argv []string, opts Options) (string, error) {
	if len(argv) == 0 {
		return "", ErrEmptyCommand
	}
	name, err := m.resolveName(argv, opts)
	if err != nil {
		return "", err
	}
	output, err := m.Execute(ctx, argv, opts.Timeout, opts.StripANSI)
	if err != nil {
		return "", err
	}
	if err := m.write(name, output); err != nil {
		return "", err
	}
	return name, nil
}

// Update is Capture under another name. Whether to ask first is up to the caller.
func (m *Manager) Update(ctx context.Context, argv []string, opts Options) (string, error) {
	log.WithFields(
		log.Fields{
			"command": strings.Join(argv, " "),
			"name":    opts.Name,
		}).Info("Updating snapshot")
	return m.Capture(ctx, argv, opts)
}

// Verify runs argv and compares its output with the stored snapshot. A missing
// snapshot is reported before the command runs.
func (m *Manager) Verify(ctx context.Context, argv []string, opts Options) (*Comparison, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	name, err := m.resolveName(argv, opts)
	if err != nil {
		return nil, err
	}
	if ok, err := m.store.Exists(name); err != nil {
		return nil, err
	} else if !ok {
		return nil, &SnapshotNotFoundError{Name: name}
	}
	expected, err := m.store.Read(name)
	if err != nil {
		return nil, err
	}

	actual, err := m.Execute(ctx, argv, opts.Timeout, opts.StripANSI)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Matches:  string(expected) == actual,
		Expected: string(expected),
		Actual:   actual,
		Name:     name,
	}
	m.stat.Counter(stats.SnapshotVerifyCounter).Inc(1)
	if !cmp.Matches {
		m.stat.Counter(stats.SnapshotMismatchCounter).Inc(1)
	}
	log.Debugf("Verified %s: %s", name, render.Render(cmp))
	return cmp, nil
}

// Accept stores the actual output of a Comparison under its name. Callers that
// showed the operator a diff use this so that exactly what was shown is stored.
func (m *Manager) Accept(cmp *Comparison) error {
	if cmp == nil {
		return errors.New("nil comparison")
	}
	if err := validateName(strings.TrimSuffix(cmp.Name, Extension)); err != nil {
		return err
	}
	return m.write(cmp.Name, cmp.Actual)
}

// List returns the sorted file names of stored snapshots. A non-empty pattern is
// a doublestar glob matched against the file name.
func (m *Manager) List(pattern string) ([]string, error) {
	names, err := m.store.List(pattern)
	if err != nil {
		return nil, err
	}
	snapshots := []string{}
	for _, name := range names {
		if strings.HasSuffix(name, Extension) {
			snapshots = append(snapshots, name)
		}
	}
	return snapshots, nil
}

// Delete removes the named snapshot. The name may be given with or without its
// extension, so names printed by List can be passed back.
func (m *Manager) Delete(name string) error {
	base := strings.TrimSuffix(name, Extension)
	if err := validateName(base); err != nil {
		return err
	}
	file := base + Extension
	if ok, err := m.store.Exists(file); err != nil {
		return err
	} else if !ok {
		return &SnapshotNotFoundError{Name: file}
	}
	if err := m.store.Remove(file); err != nil {
		return err
	}
	m.stat.Counter(stats.SnapshotDeleteCounter).Inc(1)
	log.WithFields(
		log.Fields{
			"name": file,
			"dir":  m.Dir(),
		}).Info("Deleted snapshot")
	return nil
}

func (m *Manager) write(name, content string) error {
	if err := m.store.Write(name, []byte(content)); err != nil {
		return err
	}
	m.stat.Counter(stats.SnapshotWriteCounter).Inc(1)
	log.WithFields(
		log.Fields{
			"name": name,
			"dir":  m.Dir(),
			"size": len(content),
		}).Info("Saved snapshot")
	return nil
}
