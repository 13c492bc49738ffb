package stats

/*
This file defines all the metrics being collected. As new metrics are added please follow this pattern.
*/

const (
	/************************* Snapshot manager metrics **************************/
	/*
		number of snapshots written by capture, update or an accepted update
	*/
	SnapshotWriteCounter = "writeCounter"

	/*
		number of verify calls that compared output against a stored snapshot
	*/
	SnapshotVerifyCounter = "verifyCounter"

	/*
		number of verify calls whose output differed from the stored snapshot
	*/
	SnapshotMismatchCounter = "mismatchCounter"

	/*
		number of snapshots deleted
	*/
	SnapshotDeleteCounter = "deleteCounter"

	/************************* Command execution metrics **************************/
	/*
		time spent running the subject command, including timed out runs
	*/
	CommandLatency_ms = "commandLatency_ms"

	/*
		number of subject commands killed for exceeding their timeout
	*/
	CommandTimeoutCounter = "commandTimeoutCounter"

	/*
		number of subject commands that could not be launched
	*/
	CommandNotFoundCounter = "commandNotFoundCounter"
)
