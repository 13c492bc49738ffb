// Package exec provides extended functionality interfaces to os/exec as well as exec utilities
package exec

import (
	"io"
	"os"
	osexec "os/exec"
	"syscall"
	"time"
)

// ErrWaitDelay is returned by Wait when output copying was cut short by SetWaitDelay.
var ErrWaitDelay = osexec.ErrWaitDelay

type (
	// OsExec provides an interface around os/exec.Command to support injecting fake
	// exec functionality
	OsExec interface {
		// Command creates a Cmd interface with the path to the command to run
		// 'cmd' and the command arguments set.
		//
		// If name contains no path separators, Command uses os/exec.LookPath() to resolve
		// the path to a complete name if possible. Otherwise it uses name
		// directly.
		Command(cmd string, args ...string) Cmd
	}

	defaultOsExec struct{}

	// Cmd wraps the os/exec.Cmd struct with our own interface
	Cmd interface {
		// Path returns the path to the executable to run
		Path() string

		// Args returns a copy of the arguments given to the executable, including argv[0].
		Args() []string

		// Run starts the specified command and waits for it to complete.
		Run() error

		// Start starts the specified command but does not wait for it to complete.
		Start() error

		// Wait waits for the command to exit. It must have been started by Start.
		//
		// If the command fails to run or doesn't complete successfully, the error is
		// an ExitError.
		Wait() error

		// SetProcessGroup puts the child in a new process group whose pgid is its pid,
		// so that it can be signalled together with everything it spawns.
		// Must be called before Start.
		SetProcessGroup(enable bool)

		// SetWaitDelay bounds how long Wait keeps copying output once the process has
		// exited, so that a descendant holding stdout or stderr open can't block Wait.
		// Wait then returns ErrWaitDelay if the process itself succeeded.
		// Must be called before Start.
		SetWaitDelay(time.Duration)

		// SetStdout sets the stdout of the process to write to the given io.Writer
		SetStdout(io.Writer)

		// SetStderr sets the stderr of the process to write to the given io.Writer
		SetStderr(io.Writer)

		// String returns a human-readable description of c. It is intended only for debugging.
		String() string

		// Process returns the underlying os.Process object once the command has
		// been started, and nil if it has not been started
		Process() *os.Process

		// ProcessState returns the underlying ProcessState once the process has
		// exited and nil if it has not
		ProcessState() *os.ProcessState
	}

	// ExitError provides our own interface around process termination to allow for
	// mocking in tests.
	//
	//   err := NewOsExec().Command("false").Run()
	//   if exitErr, ok := err.(ExitError); ok {
	//     /* the process ran and exited non-zero or was signaled */
	//   }
	ExitError interface {
		// Exited reports if the process has exited by calling the libc exit() function.
		Exited() bool

		// Pid returns the process id of the process which this information is relevant to
		Pid() int

		// ExitStatus returns the numerical exit status code from the process if Exited() is true,
		// otherwise -1
		ExitStatus() int

		// Signaled returns true if the process died because of an untrapped signal
		Signaled() bool

		// Signal returns the signal number that killed the process if Signaled() is true.
		Signal() syscall.Signal

		Error() string

		// Path contains the path from the Cmd that returned this error
		Path() string

		// Args contains the args from the Cmd that returned this error
		Args() []string
	}

	cmdAdapter struct {
		cmd *osexec.Cmd
	}

	exitErrorAdapter struct {
		err  *osexec.ExitError
		ws   syscall.WaitStatus
		path string
		args []string
	}
)

// implements assertions
var (
	_ ExitError = &exitErrorAdapter{}
	_ Cmd       = &cmdAdapter{}
)

// NewOsExec creates a default OsExec instance
func NewOsExec() OsExec {
	return &defaultOsExec{}
}

func (d *defaultOsExec) Command(cmd string, args ...string) Cmd {
	return &cmdAdapter{cmd: osexec.Command(cmd, args...)}
}

func wrapExitError(cmd Cmd, err error) error {
	if err == nil {
		return nil
	}

	if ex, ok := err.(*osexec.ExitError); ok {
		if ws, ok := ex.Sys().(syscall.WaitStatus); ok {
			return &exitErrorAdapter{
				err:  ex,
				ws:   ws,
				path: cmd.Path(),
				args: cmd.Args(),
			}
		}
	}
	return err
}

func (e *exitErrorAdapter) Exited() bool           { return e.ws.Exited() }
func (e *exitErrorAdapter) Pid() int               { return e.err.Pid() }
func (e *exitErrorAdapter) ExitStatus() int        { return e.ws.ExitStatus() }
func (e *exitErrorAdapter) Signaled() bool         { return e.ws.Signaled() }
func (e *exitErrorAdapter) Signal() syscall.Signal { return e.ws.Signal() }
func (e *exitErrorAdapter) Error() string          { return e.err.Error() }
func (e *exitErrorAdapter) Path() string           { return e.path }
func (e *exitErrorAdapter) Args() []string         { return e.args }

func (c *cmdAdapter) SetProcessGroup(enable bool) {
	if c.cmd.SysProcAttr == nil {
		c.cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	c.cmd.SysProcAttr.Setpgid = enable
}

func (c *cmdAdapter) Run() error   { return wrapExitError(c, c.cmd.Run()) }
func (c *cmdAdapter) Start() error { return c.cmd.Start() }
func (c *cmdAdapter) Wait() error  { return wrapExitError(c, c.cmd.Wait()) }

func (c *cmdAdapter) Path() string                   { return c.cmd.Path }
func (c *cmdAdapter) SetWaitDelay(d time.Duration)   { c.cmd.WaitDelay = d }
func (c *cmdAdapter) SetStdout(w io.Writer)          { c.cmd.Stdout = w }
func (c *cmdAdapter) SetStderr(w io.Writer)          { c.cmd.Stderr = w }
func (c *cmdAdapter) String() string                 { return c.cmd.String() }
func (c *cmdAdapter) Process() *os.Process           { return c.cmd.Process }
func (c *cmdAdapter) ProcessState() *os.ProcessState { return c.cmd.ProcessState }

func (c *cmdAdapter) Args() []string {
	// return a copy of the Args slice to prevent direct modification by the user
	return append([]string(nil), c.cmd.Args...)
}
