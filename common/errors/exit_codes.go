package errors

type ExitCode int

const (
	// Verify found output that differs from the stored snapshot.
	MismatchExitCode ExitCode = 1

	// The operator declined an update.
	CancelledExitCode ExitCode = 2

	// Bad input: invalid snapshot name, empty command, bad flag value.
	UsageExitCode ExitCode = 64

	SnapshotNotFoundExitCode ExitCode = 66

	InternalFailureExitCode ExitCode = 70

	CouldNotExecExitCode ExitCode = 110

	// Matches timeout(1).
	CommandTimeoutExitCode ExitCode = 124

	// 128 + SIGINT, as a shell reports it.
	InterruptedExitCode ExitCode = 130
)
