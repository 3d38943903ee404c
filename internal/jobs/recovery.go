package jobs

import (
	"context"
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

const zombieAge = 24 * time.Hour

const zombieMessage = "좀비 작업: 24시간 이상 처리 중 상태로 방치됨"

// Recovery reconciles the durable job table with a fresh process at startup:
// ancient processing rows are failed as zombies, recent processing rows were
// interrupted mid-flight and go back to queued, and every queued row is
// re-registered and re-enqueued in original submission order.
type Recovery struct {
	log      *logger.Logger
	jobRepo  repos.JobRepo
	registry *Registry
	queue    *Queue
}

func NewRecovery(baseLog *logger.Logger, jobRepo repos.JobRepo, registry *Registry, queue *Queue) *Recovery {
	return &Recovery{
		log:      baseLog.With("component", "JobRecovery"),
		jobRepo:  jobRepo,
		registry: registry,
		queue:    queue,
	}
}

func (r *Recovery) Run(ctx context.Context) error {
	if err := r.reapZombies(ctx); err != nil {
		return err
	}
	if err := r.requeueInterrupted(ctx); err != nil {
		return err
	}
	return r.enqueuePending(ctx)
}

func (r *Recovery) reapZombies(ctx context.Context) error {
	cutoff := time.Now().Add(-zombieAge)
	stale, err := r.jobRepo.ListStaleProcessing(ctx, nil, cutoff)
	if err != nil {
		return err
	}
	for _, job := range stale {
		r.log.Warn("Failing zombie job", "job_id", job.JobID, "updated_at", job.UpdatedAt)
		if err := r.jobRepo.UpdateByJobID(ctx, nil, job.JobID, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"error_message": zombieMessage,
		}); err != nil {
			return err
		}
	}
	if len(stale) > 0 {
		r.log.Info("Zombie jobs reaped", "count", len(stale))
	}
	return nil
}

func (r *Recovery) requeueInterrupted(ctx context.Context) error {
	processing, err := r.jobRepo.ListByStatus(ctx, nil, types.JobStatusProcessing)
	if err != nil {
		return err
	}
	for _, job := range processing {
		r.log.Info("Requeueing interrupted job", "job_id", job.JobID)
		if err := r.jobRepo.UpdateByJobID(ctx, nil, job.JobID, map[string]interface{}{
			"status": types.JobStatusQueued,
		}); err != nil {
			return err
		}
	}
	return nil
}

// enqueuePending pushes every queued row back onto the FIFO in created_at
// order, creating a live mirror so push-channel subscribers can attach before
// a worker picks the job up.
func (r *Recovery) enqueuePending(ctx context.Context) error {
	queued, err := r.jobRepo.ListByStatus(ctx, nil, types.JobStatusQueued)
	if err != nil {
		return err
	}
	for _, job := range queued {
		if _, ok := r.registry.Get(job.JobID); !ok {
			r.registry.Create(job.JobID)
		}
		r.queue.Enqueue(job.JobID)
	}
	if len(queued) > 0 {
		r.log.Info("Recovered queued jobs", "count", len(queued))
	}
	return nil
}
