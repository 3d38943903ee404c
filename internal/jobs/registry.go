package jobs

import (
	"sync"
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
)

// Live job statuses. A live job starts as "pending" (accepted, not yet
// picked up); the durable row for the same job starts as "queued".
const (
	LiveStatusPending    = "pending"
	LiveStatusProcessing = "processing"
	LiveStatusCompleted  = "completed"
	LiveStatusFailed     = "failed"
)

// LiveJob mirrors a durable job for the lifetime of the process. The
// notifier fires once per Update; the push channel waits on it.
type LiveJob struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	AssetID      *uint      `json:"asset_id"`
	ResultURL    *string    `json:"result_url"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	notifier     *Notifier
}

func (j *LiveJob) Notifier() *Notifier { return j.notifier }

func (j *LiveJob) TerminalStatus() bool {
	return j.Status == LiveStatusCompleted || j.Status == LiveStatusFailed
}

// LiveUpdate overlays set fields onto a live job.
type LiveUpdate struct {
	Status       *string
	AssetID      *uint
	ResultURL    *string
	ErrorMessage *string
}

// Registry is the in-memory mirror of jobs created or recovered during this
// process's uptime. Entries are never garbage-collected; a restart drops
// them (the durable row is the source of truth).
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*LiveJob
	log  *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		jobs: make(map[string]*LiveJob),
		log:  log.With("component", "JobRegistry"),
	}
}

func (r *Registry) Create(jobID string) *LiveJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := &LiveJob{
		JobID:     jobID,
		Status:    LiveStatusPending,
		CreatedAt: time.Now(),
		notifier:  NewNotifier(),
	}
	r.jobs[jobID] = job
	return job
}

// Update overlays the set fields and fires the job's notifier exactly once.
// Updating an unknown id is a no-op.
func (r *Registry) Update(jobID string, update LiveUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return
	}
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.AssetID != nil {
		job.AssetID = update.AssetID
	}
	if update.ResultURL != nil {
		job.ResultURL = update.ResultURL
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = update.ErrorMessage
	}
	job.notifier.Set()
}

func (r *Registry) Get(jobID string) (*LiveJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	return job, ok
}

// Snapshot returns a copy of the job's current fields, consistent under the
// registry lock.
func (r *Registry) Snapshot(jobID string) (LiveJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return LiveJob{}, false
	}
	return *job, true
}

// Stats counts live jobs per status.
func (r *Registry) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := map[string]int{
		LiveStatusPending:    0,
		LiveStatusProcessing: 0,
		LiveStatusCompleted:  0,
		LiveStatusFailed:     0,
	}
	for _, job := range r.jobs {
		if _, ok := stats[job.Status]; ok {
			stats[job.Status]++
		}
	}
	return stats
}
