// Package jobstore tracks notes job lifecycle records.
package jobstore

import (
	"context"

	"github.com/studyvault-app/studyvault/internal/domain/job"
)

// Store persists job records. Implementations must enforce one-way
// transitions: once a job is done or error, Complete and Fail return
// domain.ErrJobTerminal.
type Store interface {
	Create(ctx context.Context, j job.Job) error
	Get(ctx context.Context, id string) (job.Job, error)
	Complete(ctx context.Context, id, resultPath string) error
	Fail(ctx context.Context, id, message string) error
}
