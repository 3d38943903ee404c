package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/normalization"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/mediastore"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

const DefaultWorkerCount = 5

// Generator is the remote-call surface the workers dispatch to. The Vertex
// client implements it; tests substitute fakes.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string, opts *types.ImageOptions) ([]byte, error)
	GenerateVideoFromText(ctx context.Context, prompt string, opts *types.VideoOptions) ([]byte, error)
	GenerateVideoFromImage(ctx context.Context, prompt string, image []byte, mimeType string, opts *types.VideoOptions) ([]byte, error)
}

// Worker drains the FIFO with a fixed pool of goroutines. Each job makes
// exactly one pass: queued -> processing -> completed|failed. Terminal store
// writes run on a background context so a shutdown mid-call still lands them.
type Worker struct {
	log       *logger.Logger
	jobRepo   repos.JobRepo
	assetRepo repos.AssetRepo
	registry  *Registry
	queue     *Queue
	gen       Generator
	store     *mediastore.Store
	count     int
	wg        sync.WaitGroup
}

func NewWorker(
	baseLog *logger.Logger,
	jobRepo repos.JobRepo,
	assetRepo repos.AssetRepo,
	registry *Registry,
	queue *Queue,
	gen Generator,
	store *mediastore.Store,
	count int,
) *Worker {
	if count < 1 {
		count = DefaultWorkerCount
	}
	return &Worker{
		log:       baseLog.With("component", "QueueWorker"),
		jobRepo:   jobRepo,
		assetRepo: assetRepo,
		registry:  registry,
		queue:     queue,
		gen:       gen,
		store:     store,
		count:     count,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting worker pool", "count", w.count, "queued", w.queue.Len())
	for i := 0; i < w.count; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLoop(ctx, workerID)
		}()
	}
}

// Wait blocks until every worker has observed cancellation and finished its
// current job's terminal transition.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	log := w.log.With("worker_id", workerID)
	log.Info("Worker started")
	for {
		if ctx.Err() != nil {
			log.Info("Worker stopped")
			return
		}
		jobID, ok := w.queue.Dequeue(ctx, 1*time.Second)
		if !ok {
			continue
		}
		log.Info("Processing job", "job_id", jobID)
		w.process(ctx, log, jobID)
	}
}

func (w *Worker) process(ctx context.Context, log *logger.Logger, jobID string) {
	job, err := w.jobRepo.GetByJobID(ctx, nil, jobID)
	if err != nil {
		log.Error("Failed to load job", "job_id", jobID, "error", err)
		return
	}
	if job == nil {
		log.Error("Job not found in store", "job_id", jobID)
		return
	}
	// The queued gate serializes execution per id: a recovery re-enqueue
	// racing a live worker sees processing here and backs off.
	if job.Status != types.JobStatusQueued {
		log.Warn("Job not in queued status, skipping", "job_id", jobID, "status", job.Status)
		return
	}

	w.transition(jobID, types.JobStatusProcessing, LiveUpdate{Status: strPtr(LiveStatusProcessing)}, nil)

	data, assetType, runErr := w.run(ctx, job)

	if runErr != nil {
		log.Error("Job failed", "job_id", jobID, "error", runErr)
		w.fail(jobID, runErr)
	} else if err := w.complete(job, assetType, data); err != nil {
		log.Error("Failed to persist job result", "job_id", jobID, "error", err)
		w.fail(jobID, err)
	}

	if job.JobType == types.JobTypeImageToVideo && job.ImagePath != "" {
		if err := w.store.RemoveTemp(job.ImagePath); err != nil {
			log.Warn("Failed to delete temp reference image", "job_id", jobID, "path", job.ImagePath, "error", err)
		}
	}
}

func (w *Worker) run(ctx context.Context, job *types.Job) ([]byte, string, error) {
	switch job.JobType {
	case types.JobTypeTextToImage:
		opts, err := decodeImageOptions(job.Options)
		if err != nil {
			return nil, "", err
		}
		data, err := w.gen.GenerateImage(ctx, job.Prompt, opts)
		return data, types.AssetTypeImage, err

	case types.JobTypeTextToVideo:
		opts, err := decodeVideoOptions(job.Options)
		if err != nil {
			return nil, "", err
		}
		data, err := w.gen.GenerateVideoFromText(ctx, job.Prompt, opts)
		return data, types.AssetTypeVideo, err

	case types.JobTypeImageToVideo:
		opts, err := decodeVideoOptions(job.Options)
		if err != nil {
			return nil, "", err
		}
		image, err := os.ReadFile(job.ImagePath)
		if err != nil {
			return nil, "", fmt.Errorf("read reference image: %w", err)
		}
		mimeType := job.MimeType
		if mimeType == "" {
			mimeType = "image/png"
		}
		data, err := w.gen.GenerateVideoFromImage(ctx, job.Prompt, image, mimeType, opts)
		return data, types.AssetTypeVideo, err

	default:
		return nil, "", fmt.Errorf("unknown job type: %s", job.JobType)
	}
}

func (w *Worker) complete(job *types.Job, assetType string, data []byte) error {
	var resultURL string
	var err error
	if assetType == types.AssetTypeImage {
		resultURL, err = w.store.SaveImage(job.JobID, data)
	} else {
		resultURL, err = w.store.SaveVideo(job.JobID, data)
	}
	if err != nil {
		return err
	}

	asset, err := w.assetRepo.Create(context.Background(), nil, &types.Asset{
		UserID:    job.UserID,
		JobID:     job.JobID,
		FilePath:  resultURL,
		Prompt:    normalization.ParseInputString(job.Prompt),
		Model:     job.Model,
		AssetType: assetType,
	})
	if err != nil {
		return fmt.Errorf("create asset row: %w", err)
	}

	w.transition(job.JobID, types.JobStatusCompleted, LiveUpdate{
		Status:    strPtr(LiveStatusCompleted),
		AssetID:   &asset.ID,
		ResultURL: &resultURL,
	}, map[string]interface{}{
		"asset_id":   asset.ID,
		"result_url": resultURL,
	})
	return nil
}

func (w *Worker) fail(jobID string, cause error) {
	msg := cause.Error()
	w.transition(jobID, types.JobStatusFailed, LiveUpdate{
		Status:       strPtr(LiveStatusFailed),
		ErrorMessage: &msg,
	}, map[string]interface{}{
		"error_message": msg,
	})
}

// transition writes the durable row first, then mirrors into the registry,
// which fires the push-channel notifier. Terminal transitions use a
// background context so worker cancellation cannot drop them.
func (w *Worker) transition(jobID, status string, live LiveUpdate, extra map[string]interface{}) {
	updates := map[string]interface{}{"status": status}
	for k, v := range extra {
		updates[k] = v
	}
	if err := w.jobRepo.UpdateByJobID(context.Background(), nil, jobID, updates); err != nil {
		w.log.Error("Failed to update job status", "job_id", jobID, "status", status, "error", err)
	}
	w.registry.Update(jobID, live)
}

func decodeImageOptions(raw []byte) (*types.ImageOptions, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var opts types.ImageOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decode image options: %w", err)
	}
	return &opts, nil
}

func decodeVideoOptions(raw []byte) (*types.VideoOptions, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var opts types.VideoOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("decode video options: %w", err)
	}
	return &opts, nil
}

func strPtr(s string) *string { return &s }
