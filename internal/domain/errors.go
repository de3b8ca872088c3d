package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrJobNotFound signals an unknown notes job id.
	ErrJobNotFound = errors.New("job_not_found")
	// ErrResultNotReady signals a notes result requested before the job finished.
	ErrResultNotReady = errors.New("result not ready")
	// ErrJobTerminal signals a status transition on an already finished job.
	ErrJobTerminal = errors.New("job already in terminal state")
	// ErrQueueFull signals that the notes pipeline rejected a job due to backpressure.
	ErrQueueFull = errors.New("notes queue full")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrLLMProviderError signals an embedding or generation provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrNoUsableChunks signals that no chunk of a notes job produced valid output.
	ErrNoUsableChunks = errors.New("no usable chunks")
)
