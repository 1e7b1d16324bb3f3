package constants

// Phase is the lifecycle state of a single batch item.
type Phase string

// Stable values (persisted in snapshots).
const (
	PhaseQueued      Phase = "QUEUED"
	PhaseCompressing Phase = "COMPRESSING"
	PhaseExtracting  Phase = "EXTRACTING"
	PhaseChecking    Phase = "CHECKING"  // delivery platform probes
	PhaseReviewing   Phase = "REVIEWING" // text review + contact enrichment
	PhaseSucceeded   Phase = "SUCCEEDED"
	PhaseFailed      Phase = "FAILED" // terminal failure
)

// IsTerminal reports whether no further transition is possible for the item.
func (p Phase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// BatchState is the state of a whole batch run.
type BatchState string

const (
	BatchIdle     BatchState = "IDLE"
	BatchRunning  BatchState = "RUNNING"
	BatchPaused   BatchState = "PAUSED"
	BatchDone     BatchState = "DONE"
	BatchHalted   BatchState = "HALTED" // fatal error, e.g. no credentials
	BatchCanceled BatchState = "CANCELED"
)

// IsActive reports whether the batch is still progressing.
func (s BatchState) IsActive() bool {
	return s == BatchRunning
}
