package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krafton-jungle/mediagen-backend/internal/http/response"
	"github.com/krafton-jungle/mediagen-backend/internal/jobs"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/services"
)

type JobHandler struct {
	log        *logger.Logger
	jobService services.JobService
	registry   *jobs.Registry
}

func NewJobHandler(baseLog *logger.Logger, jobService services.JobService, registry *jobs.Registry) *JobHandler {
	return &JobHandler{
		log:        baseLog.With("handler", "JobHandler"),
		jobService: jobService,
		registry:   registry,
	}
}

// GET /api/generate/jobs/:id
func (jh *JobHandler) GetJob(c *gin.Context) {
	job, err := jh.jobService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, job)
}

// GET /api/generate/jobs/:id/stream
//
// StreamJob pushes one frame immediately with the job's current state, then
// one frame per observed change, and closes after emitting a terminal frame.
// Changes are edge-triggered: updates that land while a frame is being
// written coalesce into the next frame.
func (jh *JobHandler) StreamJob(c *gin.Context) {
	live, err := jh.jobService.Live(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.RespondError(c, http.StatusInternalServerError, "streaming_unsupported", fmt.Errorf("response writer cannot stream"))
		return
	}

	ctx := c.Request.Context()
	notifier := live.Notifier()

	for {
		// Clear before snapshotting: an update racing the snapshot either
		// lands in this frame or re-arms the notifier for the next one.
		notifier.Clear()
		snapshot, ok := jh.registry.Snapshot(live.JobID)
		if !ok {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", jh.encodeFrame(&snapshot))
		flusher.Flush()
		if snapshot.TerminalStatus() {
			return
		}
		if err := notifier.Wait(ctx); err != nil {
			jh.log.Debug("SSE client disconnected", "job_id", live.JobID, "error", err)
			return
		}
	}
}

func (jh *JobHandler) encodeFrame(snapshot *jobs.LiveJob) []byte {
	data, err := json.Marshal(snapshot)
	if err != nil {
		jh.log.Error("Failed to marshal SSE frame", "job_id", snapshot.JobID, "error", err)
		return []byte("{}")
	}
	return data
}
