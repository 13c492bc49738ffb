package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	snaperrors "github.com/twitter/assertsnap/common/errors"
	"github.com/twitter/assertsnap/common/log/hooks"
	"github.com/twitter/assertsnap/common/stats"
	"github.com/twitter/assertsnap/config/resolver"
	"github.com/twitter/assertsnap/snapshot"
	"github.com/twitter/assertsnap/snapshot/cli"
	"github.com/twitter/assertsnap/snapshot/diff"
)

const snapshotDirEnv = "ASSERTSNAP_DIR"

func main() {
	log.AddHook(hooks.NewContextHook())
	log.SetLevel(log.WarnLevel)

	inj := &injector{stat: stats.DefaultStatsReceiver()}
	cmd := cli.MakeSnapshotCLI(inj)

	// Ctrl-C kills the command under test along with everything it started.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	stop()

	if inj.printStats {
		fmt.Fprintf(os.Stderr, "%s\n", inj.stat.Render(true))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(exitCode(err)))
	}
}

// Errors that never reached a command, like bad flags, are usage errors.
func exitCode(err error) snaperrors.ExitCode {
	var exitErr *snaperrors.ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.GetExitCode()
	}
	return snaperrors.UsageExitCode
}

type injector struct {
	snapshotDir string
	logLevel    string
	stream      bool
	printStats  bool

	stat stats.StatsReceiver
}

func (i *injector) RegisterFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&i.snapshotDir, "snapshot-dir", "",
		fmt.Sprintf("directory holding snapshots (default $%s, then %s)", snapshotDirEnv, snapshot.DefaultDir))
	rootCmd.PersistentFlags().StringVar(&i.logLevel, "log-level", "warn",
		"Log everything at this level and above (error|warn|info|debug)")
	rootCmd.PersistentFlags().BoolVar(&i.stream, "stream", false, "copy command output to stderr as it runs")
	rootCmd.PersistentFlags().BoolVar(&i.printStats, "print-stats", false, "print operation stats to stderr on exit")
}

func (i *injector) Inject() (*snapshot.Manager, error) {
	level, err := log.ParseLevel(i.logLevel)
	if err != nil {
		return nil, snaperrors.NewError(err, snaperrors.UsageExitCode)
	}
	log.SetLevel(level)

	dirResolver := resolver.NewCompositeResolver(
		resolver.NewConstantResolver(i.snapshotDir),
		resolver.NewEnvResolver(snapshotDirEnv),
		resolver.NewConstantResolver(snapshot.DefaultDir))
	dir, err := dirResolver.Resolve()
	if err != nil {
		return nil, err
	}
	log.WithFields(
		log.Fields{
			"dir":      dir,
			"resolver": dirResolver,
		}).Debug("Resolved snapshot dir")

	var stream io.Writer
	if i.stream {
		stream = os.Stderr
	}
	return snapshot.NewManager(snapshot.Config{
		Dir:    dir,
		Stream: stream,
		Stat:   i.stat,
	}), nil
}

func (i *injector) NewPrompter(in io.Reader, out io.Writer) diff.Prompter {
	return diff.NewPrompter(in, out)
}
