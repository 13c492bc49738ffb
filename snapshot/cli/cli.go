package cli

// package cli implements the assertsnap command line. It works with Cobra and with
// flags that main wants to set. How?
//
// First, main.go runs.
//
// main.go defines its own impl of Injector and constructs it; call it InjImpl.
//
// main.go calls MakeSnapshotCLI with InjImpl
//
// MakeSnapshotCLI calls InjImpl.RegisterFlags, which registers the flags that main
//   needs, e.g. where snapshots live and how verbose to be.
//
// MakeSnapshotCLI creates the cobra commands
//   (for each cobra command, there will be a snapCommand)
//   creating the cobra command involves:
//     calling snapCommand.register(), which will register the command's own flags
//     creating the cobra command with RunE as a wrapper function that will call the Injector
//
// MakeSnapshotCLI returns the root *cobra.Command
//
// main.go calls cmd.ExecuteContext()
//
// cobra will parse the command-line flags
//
// cobra will call cmd's RunE, which includes the wrapper defined in MakeSnapshotCLI
//
// the wrapper will call Injector.Inject(), which will construct a *snapshot.Manager
// the wrapper will call snapCommand.run() with a session holding the manager, the cobra
//   command (which holds the registered flags) and the additional command-line args
//
// snapCommand.run() does the work of calling the Manager and reporting to the operator.
// Whatever it returns is converted to an ExitCodeError for main to exit with.
import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	snaperrors "github.com/twitter/assertsnap/common/errors"
	"github.com/twitter/assertsnap/snapshot"
	"github.com/twitter/assertsnap/snapshot/diff"
	"github.com/twitter/assertsnap/snapshot/store"
)

type Injector interface {
	RegisterFlags(cmd *cobra.Command)
	Inject() (*snapshot.Manager, error)
	NewPrompter(in io.Reader, out io.Writer) diff.Prompter
}

// session is what a snapCommand works with.
type session struct {
	manager  *snapshot.Manager
	renderer *diff.Renderer
	prompter diff.Prompter
}

func MakeSnapshotCLI(injector Injector) *cobra.Command {
	var noColor bool
	rootCobraCmd := &cobra.Command{
		Use:   "assertsnap",
		Short: "snapshot testing for command output",
		Long: "assertsnap runs a command, stores its combined output as a named snapshot, " +
			"and checks later runs against it.\n" +
			"Pass commands whose own arguments start with '-' after '--'.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCobraCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "don't colorize diffs")

	injector.RegisterFlags(rootCobraCmd)

	add := func(subCmd snapCommand, parentCobraCmd *cobra.Command) {
		cmd := subCmd.register()
		cmd.RunE = func(innerCmd *cobra.Command, args []string) error {
			manager, err := injector.Inject()
			if err != nil {
				return exitError(err)
			}
			s := &session{
				manager:  manager,
				renderer: diff.NewRenderer(!noColor),
				prompter: injector.NewPrompter(innerCmd.InOrStdin(), innerCmd.OutOrStdout()),
			}
			return exitError(subCmd.run(s, innerCmd, args))
		}
		parentCobraCmd.AddCommand(cmd)
	}

	add(&captureCommand{}, rootCobraCmd)
	add(&verifyCommand{}, rootCobraCmd)
	add(&updateCommand{}, rootCobraCmd)
	add(&listCommand{}, rootCobraCmd)
	add(&deleteCommand{}, rootCobraCmd)

	return rootCobraCmd
}

type snapCommand interface {
	register() *cobra.Command
	run(s *session, cmd *cobra.Command, args []string) error
}

// execFlags are shared by the commands that run something.
type execFlags struct {
	name      string
	stripANSI bool
	timeout   int
}

func (f *execFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "snapshot name (default: derived from the command)")
	cmd.Flags().BoolVar(&f.stripANSI, "strip-ansi", false, "remove ANSI escape sequences from the output")
	cmd.Flags().IntVar(&f.timeout, "timeout", int(snapshot.DefaultTimeout/time.Second),
		"seconds to let the command run, 0 for no limit")
}

func (f *execFlags) options(cmd *cobra.Command) (snapshot.Options, error) {
	if f.timeout < 0 {
		return snapshot.Options{}, snaperrors.NewErrorf(snaperrors.UsageExitCode,
			"--timeout must be >= 0 seconds, got %d", f.timeout)
	}
	return snapshot.Options{
		Name:      f.name,
		NameSet:   cmd.Flags().Changed("name"),
		StripANSI: f.stripANSI,
		Timeout:   time.Duration(f.timeout) * time.Second,
	}, nil
}

type captureCommand struct {
	execFlags
}

func (c *captureCommand) register() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture <command...>",
		Short: "run a command and save its output as a snapshot",
	}
	c.execFlags.register(cmd)
	return cmd
}

func (c *captureCommand) run(s *session, cmd *cobra.Command, args []string) error {
	opts, err := c.options(cmd)
	if err != nil {
		return err
	}
	name, err := s.manager.Capture(cmd.Context(), args, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot saved: %s\n", name)
	return nil
}

type verifyCommand struct {
	execFlags
}

func (c *verifyCommand) register() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <command...>",
		Short: "run a command and compare its output with the saved snapshot",
	}
	c.execFlags.register(cmd)
	return cmd
}

func (c *verifyCommand) run(s *session, cmd *cobra.Command, args []string) error {
	opts, err := c.options(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cmp, err := verify(s, cmd, args, opts)
	if err != nil {
		return err
	}
	if cmp.Matches {
		fmt.Fprintln(out, "✓ Snapshot matches")
		return nil
	}
	fmt.Fprintf(out, "✗ Snapshot mismatch\n\n%s\n", s.renderer.Render(cmp.Expected, cmp.Actual))
	return snaperrors.NewErrorf(snaperrors.MismatchExitCode, "snapshot mismatch: %s", cmp.Name)
}

// verify is Manager.Verify plus the hint an operator needs when there is nothing to verify against.
func verify(s *session, cmd *cobra.Command, args []string, opts snapshot.Options) (*snapshot.Comparison, error) {
	cmp, err := s.manager.Verify(cmd.Context(), args, opts)
	var notFound *snapshot.SnapshotNotFoundError
	if errors.As(err, &notFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'capture' first to create a snapshot.")
	}
	return cmp, err
}

type updateCommand struct {
	execFlags
	yes bool
}

func (c *updateCommand) register() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <command...>",
		Short: "show how a command's output changed and replace the snapshot",
	}
	c.execFlags.register(cmd)
	cmd.Flags().BoolVarP(&c.yes, "yes", "y", false, "replace without asking")
	return cmd
}

// run walks verify, then diff, then confirm, then accept. A match ends early
// without asking or writing.
func (c *updateCommand) run(s *session, cmd *cobra.Command, args []string) error {
	opts, err := c.options(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cmp, err := verify(s, cmd, args, opts)
	if err != nil {
		return err
	}
	if cmp.Matches {
		fmt.Fprintln(out, "Snapshot already matches, no update needed.")
		return nil
	}

	fmt.Fprintln(out, s.renderer.Render(cmp.Expected, cmp.Actual))

	accept := c.yes
	if !accept {
		if accept, err = s.prompter.Confirm(diff.UpdatePrompt); err != nil {
			return err
		}
	}
	if !accept {
		fmt.Fprintln(out, "Update cancelled.")
		return snaperrors.NewErrorf(snaperrors.CancelledExitCode, "update of %s cancelled", cmp.Name)
	}

	if err := s.manager.Accept(cmp); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSnapshot updated: %s\n", cmp.Name)
	return nil
}

type listCommand struct {
	pattern string
}

func (c *listCommand) register() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list saved snapshots",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&c.pattern, "pattern", "", "only list snapshots whose file name matches this glob")
	return cmd
}

func (c *listCommand) run(s *session, cmd *cobra.Command, _ []string) error {
	names, err := s.manager.List(c.pattern)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No snapshots found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d snapshot(s):\n\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

type deleteCommand struct{}

func (c *deleteCommand) register() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
	}
}

func (c *deleteCommand) run(s *session, cmd *cobra.Command, args []string) error {
	if err := s.manager.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot deleted: %s\n", args[0])
	return nil
}

// exitError attaches the exit code for err's kind.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *snaperrors.ExitCodeError
	if errors.As(err, &exitErr) {
		return err
	}

	var (
		invalidName *snapshot.InvalidNameError
		notFound    *snapshot.SnapshotNotFoundError
		cmdNotFound *snapshot.CommandNotFoundError
		timeout     *snapshot.CommandTimeoutError
	)
	code := snaperrors.InternalFailureExitCode
	switch {
	case errors.As(err, &invalidName), errors.Is(err, snapshot.ErrEmptyCommand), errors.Is(err, store.ErrBadPattern):
		code = snaperrors.UsageExitCode
	case errors.As(err, &notFound):
		code = snaperrors.SnapshotNotFoundExitCode
	case errors.As(err, &cmdNotFound):
		code = snaperrors.CouldNotExecExitCode
	case errors.As(err, &timeout):
		code = snaperrors.CommandTimeoutExitCode
	case errors.Is(err, context.Canceled):
		code = snaperrors.InterruptedExitCode
	}
	log.WithFields(
		log.Fields{
			"exitCode": code,
			"err":      err,
		}).Debug("Command failed")
	return snaperrors.NewError(err, code)
}
