package store

import (
	"context"
	"errors"

	"github.com/dunamismax/subflow/internal/domain"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrDuplicateJob = errors.New("job id already exists")
)

// JobStore is the single source of truth for job records. Update applies the
// mutation atomically with respect to other callers and persists it before
// returning, so pollers never observe a state that a restart could roll back
// past silently.
type JobStore interface {
	Create(ctx context.Context, job domain.Job) error
	Get(ctx context.Context, id string) (domain.Job, bool, error)
	Update(ctx context.Context, id string, mutate func(*domain.Job)) (domain.Job, error)
	List(ctx context.Context) ([]domain.Job, error)
}
