package snapshot

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrEmptyCommand is returned when there is no command to run.
var ErrEmptyCommand = errors.New("Command cannot be empty")

// InvalidNameError means a snapshot name would be unsafe to use as a file name,
// or a command produced no usable name.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("Invalid snapshot name %q: %s", e.Name, e.Reason)
}

// CommandNotFoundError means the command could not be launched.
type CommandNotFoundError struct {
	Command string
	Err     error
}

func (e *CommandNotFoundError) Error() string {
	return fmt.Sprintf("Command not found: %s", e.Command)
}

func (e *CommandNotFoundError) Unwrap() error { return e.Err }

// CommandTimeoutError means the command ran past its timeout and was killed.
type CommandTimeoutError struct {
	Timeout time.Duration
}

func (e *CommandTimeoutError) Error() string {
	return fmt.Sprintf("Command timed out after %s seconds",
		strconv.FormatFloat(e.Timeout.Seconds(), 'f', -1, 64))
}

// SnapshotNotFoundError means there is no stored snapshot with the given file name.
type SnapshotNotFoundError struct {
	Name string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("Snapshot not found: %s", e.Name)
}
