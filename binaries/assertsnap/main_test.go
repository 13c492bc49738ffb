package main

import (
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snaperrors "github.com/twitter/assertsnap/common/errors"
	"github.com/twitter/assertsnap/common/stats"
	"github.com/twitter/assertsnap/snapshot"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, snaperrors.UsageExitCode, exitCode(errors.New("unknown flag: --nope")))
	assert.Equal(t, snaperrors.MismatchExitCode,
		exitCode(snaperrors.NewErrorf(snaperrors.MismatchExitCode, "snapshot mismatch: t.snapshot")))
}

func parseFlags(t *testing.T, args ...string) *injector {
	inj := &injector{stat: stats.NilStatsReceiver()}
	cmd := &cobra.Command{}
	inj.RegisterFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return inj
}

func TestInjectSnapshotDir(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	t.Setenv(snapshotDirEnv, "")
	m, err := parseFlags(t).Inject()
	require.NoError(t, err)
	assert.Equal(t, snapshot.DefaultDir, m.Dir())

	t.Setenv(snapshotDirEnv, "/tmp/env-snaps")
	m, err = parseFlags(t).Inject()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-snaps", m.Dir())

	m, err = parseFlags(t, "--snapshot-dir", "/tmp/flag-snaps").Inject()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag-snaps", m.Dir())
}

func TestInjectLogLevel(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	_, err := parseFlags(t, "--log-level", "debug").Inject()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	_, err = parseFlags(t, "--log-level", "loud").Inject()
	assert.Equal(t, snaperrors.UsageExitCode, exitCode(err))
}
