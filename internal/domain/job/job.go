// Package job defines the notes pipeline job record and its state machine.
package job

import "time"

// Status is the observable state of a notes job.
type Status string

const (
	// StatusProcessing is set synchronously on upload acceptance, before any
	// background work starts.
	StatusProcessing Status = "processing"
	// StatusDone is terminal; the result file exists.
	StatusDone Status = "done"
	// StatusError is terminal; Error carries the failure message.
	StatusError Status = "error"
)

// Job tracks one asynchronous document-to-notes unit of work. Transitions are
// one-way: processing -> done or processing -> error, nothing else.
type Job struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ResultPath string    `json:"result_path,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusError
}
