package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJobType is returned for job types the executor cannot run
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrLedgerDrift is returned when the audit found batches out of step with their ledger
	ErrLedgerDrift = errors.New("ledger drift detected")
)
