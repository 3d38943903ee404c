package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

type JobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, job *types.Job) (*types.Job, error)
	GetByJobID(ctx context.Context, tx *gorm.DB, jobID string) (*types.Job, error)
	UpdateByJobID(ctx context.Context, tx *gorm.DB, jobID string, updates map[string]interface{}) error
	ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.Job, error)
	ListStaleProcessing(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Job, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, status string) (int64, error)
}

type jobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRepo(db *gorm.DB, baseLog *logger.Logger) JobRepo {
	return &jobRepo{db: db, log: baseLog.With("repo", "JobRepo")}
}

func (r *jobRepo) Create(ctx context.Context, tx *gorm.DB, job *types.Job) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) GetByJobID(ctx context.Context, tx *gorm.DB, jobID string) (*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.Job
	err := transaction.WithContext(ctx).Where("job_id = ?", jobID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) UpdateByJobID(ctx context.Context, tx *gorm.DB, jobID string, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if jobID == "" {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("job_id = ?", jobID).
		Updates(updates).Error
}

func (r *jobRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Job
	if err := transaction.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) ListStaleProcessing(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Job, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Job
	if err := transaction.WithContext(ctx).
		Where("status = ? AND updated_at < ?", types.JobStatusProcessing, cutoff).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *jobRepo) CountByStatus(ctx context.Context, tx *gorm.DB, status string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Job{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
