package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/mediastore"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.User{}, &types.RefreshToken{}, &types.Job{}, &types.Asset{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fakeGenerator struct {
	imageData []byte
	videoData []byte
	err       error

	imageCalls int
	videoCalls int
	i2vCalls   int
	lastPrompt string
	lastImage  []byte
	lastMime   string
	lastVOpts  *types.VideoOptions
	lastIOpts  *types.ImageOptions
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string, opts *types.ImageOptions) ([]byte, error) {
	f.imageCalls++
	f.lastPrompt = prompt
	f.lastIOpts = opts
	return f.imageData, f.err
}

func (f *fakeGenerator) GenerateVideoFromText(ctx context.Context, prompt string, opts *types.VideoOptions) ([]byte, error) {
	f.videoCalls++
	f.lastPrompt = prompt
	f.lastVOpts = opts
	return f.videoData, f.err
}

func (f *fakeGenerator) GenerateVideoFromImage(ctx context.Context, prompt string, image []byte, mimeType string, opts *types.VideoOptions) ([]byte, error) {
	f.i2vCalls++
	f.lastPrompt = prompt
	f.lastImage = image
	f.lastMime = mimeType
	f.lastVOpts = opts
	return f.videoData, f.err
}

type workerFixture struct {
	db       *gorm.DB
	jobRepo  repos.JobRepo
	registry *Registry
	queue    *Queue
	gen      *fakeGenerator
	store    *mediastore.Store
	worker   *Worker
	root     string
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	log := testLogger(t)
	db := testDB(t)
	root := t.TempDir()
	store, err := mediastore.New(root, log)
	if err != nil {
		t.Fatalf("init mediastore: %v", err)
	}
	jobRepo := repos.NewJobRepo(db, log)
	assetRepo := repos.NewAssetRepo(db, log)
	registry := NewRegistry(log)
	queue := NewQueue()
	gen := &fakeGenerator{imageData: []byte("png"), videoData: []byte("mp4")}
	worker := NewWorker(log, jobRepo, assetRepo, registry, queue, gen, store, 1)
	return &workerFixture{
		db: db, jobRepo: jobRepo, registry: registry, queue: queue,
		gen: gen, store: store, worker: worker, root: root,
	}
}

func (fx *workerFixture) seedJob(t *testing.T, job *types.Job) *types.Job {
	t.Helper()
	if job.Status == "" {
		job.Status = types.JobStatusQueued
	}
	created, err := fx.jobRepo.Create(context.Background(), nil, job)
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	fx.registry.Create(job.JobID)
	return created
}

func TestWorkerCompletesImageJob(t *testing.T) {
	fx := newWorkerFixture(t)
	fx.seedJob(t, &types.Job{
		JobID:   "img-1",
		UserID:  1,
		JobType: types.JobTypeTextToImage,
		Prompt:  "  A Red Fox  ",
		Model:   "imagen-3.0-fast-generate-001",
	})

	fx.worker.process(context.Background(), fx.worker.log, "img-1")

	job, err := fx.jobRepo.GetByJobID(context.Background(), nil, "img-1")
	if err != nil || job == nil {
		t.Fatalf("load job: %v", err)
	}
	if job.Status != types.JobStatusCompleted {
		t.Fatalf("Status=%q, want completed (error_message=%q)", job.Status, job.ErrorMessage)
	}
	if job.ResultURL != "/storage/images/img-1.png" {
		t.Fatalf("ResultURL=%q", job.ResultURL)
	}
	if job.AssetID == nil {
		t.Fatalf("AssetID not set on completed job")
	}

	var asset types.Asset
	if err := fx.db.First(&asset, *job.AssetID).Error; err != nil {
		t.Fatalf("load asset: %v", err)
	}
	if asset.Prompt != "a red fox" {
		t.Fatalf("asset Prompt=%q, want normalized %q", asset.Prompt, "a red fox")
	}
	if asset.AssetType != types.AssetTypeImage {
		t.Fatalf("AssetType=%q", asset.AssetType)
	}

	data, err := os.ReadFile(filepath.Join(fx.root, "images", "img-1.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("artifact on disk = (%q, %v)", data, err)
	}

	snap, _ := fx.registry.Snapshot("img-1")
	if snap.Status != LiveStatusCompleted {
		t.Fatalf("live Status=%q, want completed", snap.Status)
	}
	if snap.ResultURL == nil || *snap.ResultURL != job.ResultURL {
		t.Fatalf("live ResultURL=%v, want %q", snap.ResultURL, job.ResultURL)
	}
}

func TestWorkerFailsJobOnProviderError(t *testing.T) {
	fx := newWorkerFixture(t)
	fx.gen.err = errors.New("생성 요청이 차단되었습니다.")
	fx.seedJob(t, &types.Job{
		JobID:   "img-2",
		UserID:  1,
		JobType: types.JobTypeTextToImage,
		Prompt:  "blocked",
		Model:   "imagen-3.0-fast-generate-001",
	})

	fx.worker.process(context.Background(), fx.worker.log, "img-2")

	job, _ := fx.jobRepo.GetByJobID(context.Background(), nil, "img-2")
	if job.Status != types.JobStatusFailed {
		t.Fatalf("Status=%q, want failed", job.Status)
	}
	if job.ErrorMessage != "생성 요청이 차단되었습니다." {
		t.Fatalf("ErrorMessage=%q", job.ErrorMessage)
	}
	snap, _ := fx.registry.Snapshot("img-2")
	if snap.Status != LiveStatusFailed || snap.ErrorMessage == nil {
		t.Fatalf("live state = %+v, want failed with message", snap)
	}
}

func TestWorkerSkipsJobNotQueued(t *testing.T) {
	fx := newWorkerFixture(t)
	fx.seedJob(t, &types.Job{
		JobID:   "done-1",
		UserID:  1,
		JobType: types.JobTypeTextToImage,
		Prompt:  "p",
		Model:   "m",
		Status:  types.JobStatusCompleted,
	})

	fx.worker.process(context.Background(), fx.worker.log, "done-1")

	if fx.gen.imageCalls != 0 {
		t.Fatalf("generator called for a non-queued job")
	}
}

func TestWorkerDecodesOptions(t *testing.T) {
	fx := newWorkerFixture(t)
	fx.seedJob(t, &types.Job{
		JobID:   "vid-1",
		UserID:  1,
		JobType: types.JobTypeTextToVideo,
		Prompt:  "waves",
		Model:   "veo-3.0-fast-generate-001",
		Options: []byte(`{"duration_seconds":4,"aspect_ratio":"9:16"}`),
	})

	fx.worker.process(context.Background(), fx.worker.log, "vid-1")

	if fx.gen.videoCalls != 1 {
		t.Fatalf("videoCalls=%d, want 1", fx.gen.videoCalls)
	}
	if fx.gen.lastVOpts == nil || fx.gen.lastVOpts.DurationSeconds == nil || *fx.gen.lastVOpts.DurationSeconds != 4 {
		t.Fatalf("options not decoded: %+v", fx.gen.lastVOpts)
	}
	job, _ := fx.jobRepo.GetByJobID(context.Background(), nil, "vid-1")
	if job.ResultURL != "/storage/videos/vid-1.mp4" {
		t.Fatalf("ResultURL=%q", job.ResultURL)
	}
}

func TestWorkerImageToVideoReadsAndCleansReference(t *testing.T) {
	fx := newWorkerFixture(t)
	refPath, err := fx.store.SaveTemp("i2v-1", "image/jpeg", []byte("ref-bytes"))
	if err != nil {
		t.Fatalf("save temp: %v", err)
	}
	fx.seedJob(t, &types.Job{
		JobID:     "i2v-1",
		UserID:    1,
		JobType:   types.JobTypeImageToVideo,
		Prompt:    "animate",
		Model:     "veo-3.0-fast-generate-001",
		ImagePath: refPath,
		MimeType:  "image/jpeg",
	})

	fx.worker.process(context.Background(), fx.worker.log, "i2v-1")

	if fx.gen.i2vCalls != 1 {
		t.Fatalf("i2vCalls=%d, want 1", fx.gen.i2vCalls)
	}
	if string(fx.gen.lastImage) != "ref-bytes" || fx.gen.lastMime != "image/jpeg" {
		t.Fatalf("reference image not passed through: (%q, %q)", fx.gen.lastImage, fx.gen.lastMime)
	}
	if _, err := os.Stat(refPath); !os.IsNotExist(err) {
		t.Fatalf("temp reference image not deleted: %v", err)
	}
	job, _ := fx.jobRepo.GetByJobID(context.Background(), nil, "i2v-1")
	if job.Status != types.JobStatusCompleted {
		t.Fatalf("Status=%q, want completed", job.Status)
	}
}

func TestWorkerFailsOnMissingReferenceImage(t *testing.T) {
	fx := newWorkerFixture(t)
	fx.seedJob(t, &types.Job{
		JobID:     "i2v-2",
		UserID:    1,
		JobType:   types.JobTypeImageToVideo,
		Prompt:    "animate",
		Model:     "veo-3.0-fast-generate-001",
		ImagePath: filepath.Join(t.TempDir(), "missing.png"),
	})

	fx.worker.process(context.Background(), fx.worker.log, "i2v-2")

	job, _ := fx.jobRepo.GetByJobID(context.Background(), nil, "i2v-2")
	if job.Status != types.JobStatusFailed {
		t.Fatalf("Status=%q, want failed", job.Status)
	}
	if fx.gen.i2vCalls != 0 {
		t.Fatalf("generator called despite missing reference image")
	}
}
