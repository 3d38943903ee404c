package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/krafton-jungle/mediagen-backend/internal/http/response"
	"github.com/krafton-jungle/mediagen-backend/internal/jobs"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/vertex"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

// SlotReporter exposes the provider permit gauges; the Vertex client
// implements it.
type SlotReporter interface {
	ImageSlotsInUse() int64
	VideoSlotsInUse() int64
}

type AdminHandler struct {
	jobRepo  repos.JobRepo
	registry *jobs.Registry
	queue    *jobs.Queue
	slots    SlotReporter
}

func NewAdminHandler(jobRepo repos.JobRepo, registry *jobs.Registry, queue *jobs.Queue, slots SlotReporter) *AdminHandler {
	return &AdminHandler{
		jobRepo:  jobRepo,
		registry: registry,
		queue:    queue,
		slots:    slots,
	}
}

// GET /api/admin/queue-status
func (ah *AdminHandler) QueueStatus(c *gin.Context) {
	ctx := c.Request.Context()

	counts := map[string]int64{}
	for _, status := range []string{
		types.JobStatusQueued,
		types.JobStatusProcessing,
		types.JobStatusCompleted,
		types.JobStatusFailed,
	} {
		n, err := ah.jobRepo.CountByStatus(ctx, nil, status)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		counts[status] = n
	}

	imageInUse := ah.slots.ImageSlotsInUse()
	videoInUse := ah.slots.VideoSlotsInUse()

	response.RespondOK(c, gin.H{
		"queue": gin.H{
			"pending": ah.queue.Len(),
		},
		"semaphore": gin.H{
			"image": gin.H{
				"max":       vertex.ImagePermits,
				"available": vertex.ImagePermits - imageInUse,
				"in_use":    imageInUse,
			},
			"video": gin.H{
				"max":       vertex.VideoPermits,
				"available": vertex.VideoPermits - videoInUse,
				"in_use":    videoInUse,
			},
		},
		"jobs": counts,
		"live": ah.registry.Stats(),
	})
}
