package exec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

const (
	CmdSeparator = "--------------------------------------------------------------"
)

var TimeoutError = errors.New("command timeout")

// defaultWaitDelay bounds output draining when the caller passes no killTimeout.
const defaultWaitDelay = time.Second

// RunResult encapsulates a return from RunKillableCommand. It is largely a summary of fields
// available from os/exec.Cmd structs, plus the full contents of stdout and stderr for analysis.
type RunResult struct {
	// ProcessState contains information about an exited process.
	// A command that fails to start or run may have a nil ProcessState.
	ProcessState *os.ProcessState

	// Stdout and Stderr contain the contents of a completed process's outputs.
	Stdout []byte
	Stderr []byte

	// Error contains any error from exec.Cmd Start() or Wait(), or TimeoutError.
	Error error

	// Started is false when the command could not be launched at all.
	Started bool
}

func (rr RunResult) String() string {
	return fmt.Sprintf("Error:%s, Stdout:%s, Stderr:%s", rr.Error, rr.Stdout, rr.Stderr)
}

func truncateCmd(cmd Cmd) string {
	args := cmd.Args()
	if len(args) > 0 {
		args[0] = filepath.Base(args[0])
	}
	return strings.Join(args, " ")
}

// RunKillableCommand execs the given Cmd and returns the resulting ProcessState and stdout/stderr contents.
// All output content is returned, but combined content can also be streamed as the Cmd is executed to streamLog
// (nil discards it).
// The Cmd runs in its own process group. If killCh is received on, or timeout > 0 elapses first, the whole
// group is sent SIGTERM and, if the child hasn't exited after killTimeout, SIGKILL. RunKillableCommand does
// not return until the child has been reaped. Output written after the child exits is read for at most
// killTimeout, so descendants that escaped the group and still hold stdout or stderr can't stall the return.
func RunKillableCommand(
	cmd Cmd,
	killCh <-chan struct{},
	killTimeout time.Duration,
	streamLog io.Writer,
	timeout time.Duration,
) RunResult {
	rr := RunResult{}
	if streamLog == nil {
		streamLog = io.Discard
	}

	// send stdout/stderr to both streamLog and outBuf/errBuf
	var outBuf, errBuf bytes.Buffer
	syncLog := &syncWriter{w: streamLog}
	cmd.SetStdout(io.MultiWriter(&outBuf, syncLog))
	cmd.SetStderr(io.MultiWriter(&errBuf, syncLog))
	cmd.SetProcessGroup(true)
	waitDelay := killTimeout
	if waitDelay <= 0 {
		waitDelay = defaultWaitDelay
	}
	cmd.SetWaitDelay(waitDelay)

	doneCh := make(chan struct{})

	log.Debugf("Running Command: %s", cmd.String())
	syncLog.Write([]byte(fmt.Sprintf("\n%s\nRunning Command: %s\n", CmdSeparator, truncateCmd(cmd))))
	cmdErr := cmd.Start()
	if cmdErr != nil {
		rr.Error = cmdErr
		rr.Stdout = outBuf.Bytes()
		rr.Stderr = errBuf.Bytes()
		return rr
	}
	rr.Started = true

	go func() {
		cmdErr = cmd.Wait()
		close(doneCh)
	}()

	// if timeout > 0, set up timeout signalling
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	// wait for command completion, timeout or kill
	select {
	case <-doneCh:
		if errors.Is(cmdErr, ErrWaitDelay) {
			// the child succeeded; only a detached descendant kept the pipes open
			log.Infof("Command exited but its output was still held open after %v, ignoring the rest", waitDelay)
			cmdErr = nil
		}
		syncLog.Write([]byte(fmt.Sprintf("\nExited - ExitCode: %d\n%s\n", cmd.ProcessState().ExitCode(), CmdSeparator)))
	case <-timeoutCh:
		log.Infof("command timed out %v. Killing command", timeout)
		termThenKill(cmd.Process(), killTimeout, doneCh)
		// must still wait for cmd.Wait()
		<-doneCh
		syncLog.Write([]byte(fmt.Sprintf("\nTimeout after %v\n%s\n", timeout, CmdSeparator)))
		cmdErr = TimeoutError
	case <-killCh:
		log.Info("Received kill request for command")
		termThenKill(cmd.Process(), killTimeout, doneCh)
		<-doneCh
		syncLog.Write([]byte(fmt.Sprintf("\nTerminated by external request\n%s\n", CmdSeparator)))
	}

	rr.ProcessState = cmd.ProcessState()
	rr.Stdout = outBuf.Bytes()
	rr.Stderr = errBuf.Bytes()
	rr.Error = cmdErr
	return rr
}

// termThenKill SIGTERMs the process group led by p, then SIGKILLs the group if p hasn't exited after d.
// waitDoneCh must be closed by the caller when the process exits (to avoid double Wait()ing).
// The pgid is p's pid since the process was started with Setpgid.
func termThenKill(p *os.Process, d time.Duration, waitDoneCh <-chan struct{}) error {
	if p == nil {
		return nil
	}
	pgid := p.Pid
	log.WithFields(
		log.Fields{
			"pid":  p.Pid,
			"pgid": pgid,
		}).Info("Sending SIGTERM to command process group")
	signalled := true
	if err := unix.Kill(-pgid, unix.SIGTERM); err != nil {
		// the group may already be gone, fall back to the process itself
		logSignalError("Failed to send SIGTERM to process group", err)
		if err := p.Signal(unix.SIGTERM); err != nil {
			logSignalError("Failed to send SIGTERM to process", err)
			signalled = false
		}
	}

	select {
	case <-waitDoneCh:
		// the leader exited; make sure none of its children outlive it
		cleanupProcs(pgid)
	case <-time.After(d):
		if signalled {
			log.Info("Command hasn't exited, using SIGKILL")
		}
		if err := cleanupProcs(pgid); err != nil {
			if err := p.Kill(); err != nil && !gone(err) {
				log.Errorf("Failed to Kill() process: %s", err)
				return err
			}
		}
	}
	return nil
}

// gone reports whether a signalling error only means the target has already exited.
func gone(err error) bool {
	return errors.Is(err, unix.ESRCH) || errors.Is(err, os.ErrProcessDone)
}

func logSignalError(msg string, err error) {
	if gone(err) {
		log.Debugf("%s: %s", msg, err)
		return
	}
	log.Errorf("%s: %s", msg, err)
}

// Kill all processes in the group, assuming no child processes called setpgid
func cleanupProcs(pgid int) (err error) {
	log.WithFields(
		log.Fields{
			"pgid": pgid,
		}).Debug("Cleaning up pgid")
	if err = unix.Kill(-pgid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		log.WithFields(
			log.Fields{
				"pgid":  pgid,
				"error": err,
			}).Error("Error cleaning up pgid")
		return err
	}
	return nil
}

// syncWriter is an io.Writer wrapper around another io.Writer that supports safe concurrent Writes.
// RunKillableCommand needs to use this to safely write both stdout and stderr to streamLog.
type syncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

func (b *syncWriter) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.w.Write(p)
}
