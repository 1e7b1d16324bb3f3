package entity

import (
	"time"

	"github.com/joseph-ayodele/bizscan/constants"
)

// BatchItem is one uploaded file moving through the pipeline.
// Only the orchestrator mutates it.
type BatchItem struct {
	FileName   string          `json:"fileName"`
	Data       []byte          `json:"-"`
	Phase      constants.Phase `json:"phase"`
	RetryCount int             `json:"retryCount"`
	LastError  string          `json:"lastError,omitempty"`
}

// FailedItem is an item that exhausted its retry budget.
type FailedItem struct {
	FileName   string `json:"fileName"`
	Error      string `json:"error"`
	RetryCount int    `json:"retryCount"`
}

// Progress is published after every phase transition.
type Progress struct {
	Processed   int             `json:"processed"`
	Total       int             `json:"total"`
	Fraction    float64         `json:"fraction"`
	Phase       constants.Phase `json:"phase"`
	CurrentFile string          `json:"currentFile"`
}

// Snapshot is a read-only copy of a batch's results.
type Snapshot struct {
	BatchID   string               `json:"batchId"`
	State     constants.BatchState `json:"state"`
	Records   []Record             `json:"records"`
	Failed    []FailedItem         `json:"failed"`
	Discarded int                  `json:"discarded"`
	Progress  Progress             `json:"progress"`
	Error     string               `json:"error,omitempty"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Succeeded is the number of records kept.
func (s Snapshot) Succeeded() int {
	return len(s.Records)
}

// Clone returns a deep copy of the snapshot slices.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Records = append([]Record(nil), s.Records...)
	out.Failed = append([]FailedItem(nil), s.Failed...)
	return out
}
