package services

import (
	"context"
	"fmt"

	"github.com/krafton-jungle/mediagen-backend/internal/jobs"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/apierr"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

// JobService serves job status lookups. Jobs are keyed by an unguessable
// uuid, so the status and stream endpoints take no credentials.
type JobService interface {
	Get(ctx context.Context, jobID string) (*types.Job, error)
	// Live returns the in-memory mirror for the push channel.
	Live(ctx context.Context, jobID string) (*jobs.LiveJob, error)
}

type jobService struct {
	log      *logger.Logger
	jobRepo  repos.JobRepo
	registry *jobs.Registry
}

func NewJobService(baseLog *logger.Logger, jobRepo repos.JobRepo, registry *jobs.Registry) JobService {
	return &jobService{
		log:      baseLog.With("service", "JobService"),
		jobRepo:  jobRepo,
		registry: registry,
	}
}

func (s *jobService) Get(ctx context.Context, jobID string) (*types.Job, error) {
	job, err := s.jobRepo.GetByJobID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.New(404, "not_found", fmt.Errorf("job %s not found", jobID))
	}
	return job, nil
}

func (s *jobService) Live(ctx context.Context, jobID string) (*jobs.LiveJob, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	live, ok := s.registry.Get(jobID)
	if !ok {
		// The row survived a restart but the in-memory mirror did not.
		// Recovery re-registers queued and processing rows, so only
		// terminal rows land here; rebuild a mirror from the row.
		if !job.Terminal() {
			return nil, apierr.New(404, "not_found", fmt.Errorf("job %s has no live state", jobID))
		}
		live = s.registry.Create(jobID)
		update := jobs.LiveUpdate{Status: &job.Status}
		if job.AssetID != nil {
			update.AssetID = job.AssetID
		}
		if job.ResultURL != "" {
			update.ResultURL = &job.ResultURL
		}
		if job.ErrorMessage != "" {
			update.ErrorMessage = &job.ErrorMessage
		}
		s.registry.Update(jobID, update)
	}
	return live, nil
}
