package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/krafton-jungle/mediagen-backend/internal/jobs"
	"github.com/krafton-jungle/mediagen-backend/internal/normalization"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/apierr"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/mediastore"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/vertex"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

// SubmitResult is the accepted-submission payload. A cache hit comes back
// already completed; everything else starts pending.
type SubmitResult struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	AssetID   *uint     `json:"asset_id,omitempty"`
	ResultURL *string   `json:"result_url,omitempty"`
	Cached    bool      `json:"cached"`
}

type GenerationService interface {
	SubmitTextToImage(ctx context.Context, userID uint, prompt, model string, opts *types.ImageOptions) (*SubmitResult, error)
	SubmitTextToVideo(ctx context.Context, userID uint, prompt, model string, opts *types.VideoOptions) (*SubmitResult, error)
	SubmitImageToVideo(ctx context.Context, userID uint, prompt, model string, image []byte, mimeType string, opts *types.VideoOptions) (*SubmitResult, error)
}

type generationService struct {
	log       *logger.Logger
	jobRepo   repos.JobRepo
	assetRepo repos.AssetRepo
	registry  *jobs.Registry
	queue     *jobs.Queue
	store     *mediastore.Store
}

func NewGenerationService(
	baseLog *logger.Logger,
	jobRepo repos.JobRepo,
	assetRepo repos.AssetRepo,
	registry *jobs.Registry,
	queue *jobs.Queue,
	store *mediastore.Store,
) GenerationService {
	return &generationService{
		log:       baseLog.With("service", "GenerationService"),
		jobRepo:   jobRepo,
		assetRepo: assetRepo,
		registry:  registry,
		queue:     queue,
		store:     store,
	}
}

func (s *generationService) SubmitTextToImage(ctx context.Context, userID uint, prompt, model string, opts *types.ImageOptions) (*SubmitResult, error) {
	if prompt == "" {
		return nil, apierr.New(422, "validation_error", fmt.Errorf("prompt is required"))
	}
	if err := opts.Validate(); err != nil {
		return nil, apierr.New(422, "validation_error", err)
	}
	if model == "" {
		model = vertex.ImagenModel
	}

	if !opts.HasValues() {
		hit, err := s.cacheLookup(ctx, userID, prompt, model, types.AssetTypeImage, types.JobTypeTextToImage)
		if err != nil {
			return nil, err
		}
		if hit != nil {
			return hit, nil
		}
	}
	return s.enqueue(ctx, userID, types.JobTypeTextToImage, prompt, model, opts, "", "")
}

func (s *generationService) SubmitTextToVideo(ctx context.Context, userID uint, prompt, model string, opts *types.VideoOptions) (*SubmitResult, error) {
	if prompt == "" {
		return nil, apierr.New(422, "validation_error", fmt.Errorf("prompt is required"))
	}
	if err := opts.Validate(); err != nil {
		return nil, apierr.New(422, "validation_error", err)
	}
	if model == "" {
		model = vertex.VeoModel
	}

	if !opts.HasValues() {
		hit, err := s.cacheLookup(ctx, userID, prompt, model, types.AssetTypeVideo, types.JobTypeTextToVideo)
		if err != nil {
			return nil, err
		}
		if hit != nil {
			return hit, nil
		}
	}
	return s.enqueue(ctx, userID, types.JobTypeTextToVideo, prompt, model, opts, "", "")
}

// SubmitImageToVideo never consults the cache: the reference image is part of
// the generation input and the fingerprint cannot capture it.
func (s *generationService) SubmitImageToVideo(ctx context.Context, userID uint, prompt, model string, image []byte, mimeType string, opts *types.VideoOptions) (*SubmitResult, error) {
	if prompt == "" {
		return nil, apierr.New(422, "validation_error", fmt.Errorf("prompt is required"))
	}
	if len(image) == 0 {
		return nil, apierr.New(422, "validation_error", fmt.Errorf("reference image is required"))
	}
	if err := opts.Validate(); err != nil {
		return nil, apierr.New(422, "validation_error", err)
	}
	if model == "" {
		model = vertex.VeoModel
	}

	jobID := uuid.NewString()
	imagePath, err := s.store.SaveTemp(jobID, mimeType, image)
	if err != nil {
		return nil, err
	}
	return s.enqueueWithID(ctx, jobID, userID, types.JobTypeImageToVideo, prompt, model, opts, imagePath, mimeType)
}

// cacheLookup probes the result cache by (normalized prompt, model, type).
// A hit materializes a completed job row so GET /jobs/{id} and the push
// channel behave exactly as for a freshly generated result.
func (s *generationService) cacheLookup(ctx context.Context, userID uint, prompt, model, assetType, jobType string) (*SubmitResult, error) {
	asset, err := s.assetRepo.FindNewestByFingerprint(ctx, nil, normalization.ParseInputString(prompt), model, assetType)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, nil
	}

	jobID := uuid.NewString()
	resultURL := asset.FilePath
	row, err := s.jobRepo.Create(ctx, nil, &types.Job{
		JobID:     jobID,
		UserID:    userID,
		JobType:   jobType,
		Prompt:    prompt,
		Model:     model,
		Status:    types.JobStatusCompleted,
		AssetID:   &asset.ID,
		ResultURL: resultURL,
	})
	if err != nil {
		return nil, err
	}

	s.registry.Create(jobID)
	status := jobs.LiveStatusCompleted
	s.registry.Update(jobID, jobs.LiveUpdate{
		Status:    &status,
		AssetID:   &asset.ID,
		ResultURL: &resultURL,
	})

	s.log.Info("Cache hit", "job_id", jobID, "asset_id", asset.ID, "model", model)
	return &SubmitResult{
		JobID:     jobID,
		Status:    jobs.LiveStatusCompleted,
		CreatedAt: row.CreatedAt,
		AssetID:   &asset.ID,
		ResultURL: &resultURL,
		Cached:    true,
	}, nil
}

func (s *generationService) enqueue(ctx context.Context, userID uint, jobType, prompt, model string, opts interface{ HasValues() bool }, imagePath, mimeType string) (*SubmitResult, error) {
	return s.enqueueWithID(ctx, uuid.NewString(), userID, jobType, prompt, model, opts, imagePath, mimeType)
}

func (s *generationService) enqueueWithID(ctx context.Context, jobID string, userID uint, jobType, prompt, model string, opts interface{ HasValues() bool }, imagePath, mimeType string) (*SubmitResult, error) {
	var optionsJSON datatypes.JSON
	if opts != nil && opts.HasValues() {
		raw, err := json.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		optionsJSON = raw
	}

	row, err := s.jobRepo.Create(ctx, nil, &types.Job{
		JobID:     jobID,
		UserID:    userID,
		JobType:   jobType,
		Prompt:    prompt,
		Model:     model,
		Options:   optionsJSON,
		ImagePath: imagePath,
		MimeType:  mimeType,
		Status:    types.JobStatusQueued,
	})
	if err != nil {
		return nil, err
	}

	s.registry.Create(jobID)
	s.queue.Enqueue(jobID)

	s.log.Info("Job enqueued", "job_id", jobID, "job_type", jobType, "user_id", userID)
	return &SubmitResult{JobID: jobID, Status: jobs.LiveStatusPending, CreatedAt: row.CreatedAt}, nil
}
