package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/krafton-jungle/mediagen-backend/internal/http/middleware"
	"github.com/krafton-jungle/mediagen-backend/internal/http/response"
	"github.com/krafton-jungle/mediagen-backend/internal/services"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

const maxReferenceImageBytes = 10 << 20

var errImageTooLarge = fmt.Errorf("reference image exceeds %d bytes", maxReferenceImageBytes)

func errMissingField(name string) error {
	return fmt.Errorf("%s is required", name)
}

// videoOptionsFromForm reads the option fields from individual multipart
// form values, mirroring the top-level JSON shape of the text submissions.
func videoOptionsFromForm(c *gin.Context) (*types.VideoOptions, error) {
	opts := &types.VideoOptions{}
	if v := c.PostForm("aspect_ratio"); v != "" {
		opts.AspectRatio = &v
	}
	if v := c.PostForm("negative_prompt"); v != "" {
		opts.NegativePrompt = &v
	}
	if v := c.PostForm("resolution"); v != "" {
		opts.Resolution = &v
	}
	if v := c.PostForm("duration_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("duration_seconds must be an integer")
		}
		opts.DurationSeconds = &n
	}
	if v := c.PostForm("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("seed must be an integer")
		}
		opts.Seed = &n
	}
	if v := c.PostForm("generate_audio"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("generate_audio must be a boolean")
		}
		opts.GenerateAudio = &b
	}
	return opts, nil
}

type GenerateHandler struct {
	generationService services.GenerationService
}

func NewGenerateHandler(generationService services.GenerationService) *GenerateHandler {
	return &GenerateHandler{generationService: generationService}
}

func (gh *GenerateHandler) TextToImage(c *gin.Context) {
	// Option fields ride at the top level of the body, next to prompt and
	// model.
	var req struct {
		Prompt string `json:"prompt" binding:"required"`
		Model  string `json:"model"`
		types.ImageOptions
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", err)
		return
	}
	user := middleware.CurrentUser(c)
	result, err := gh.generationService.SubmitTextToImage(c.Request.Context(), user.ID, req.Prompt, req.Model, &req.ImageOptions)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (gh *GenerateHandler) TextToVideo(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt" binding:"required"`
		Model  string `json:"model"`
		types.VideoOptions
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", err)
		return
	}
	user := middleware.CurrentUser(c)
	result, err := gh.generationService.SubmitTextToVideo(c.Request.Context(), user.ID, req.Prompt, req.Model, &req.VideoOptions)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// ImageToVideo takes multipart form data: a "prompt" field, an "image" file
// part, and an optional "options" field holding the JSON option bag.
func (gh *GenerateHandler) ImageToVideo(c *gin.Context) {
	prompt := c.PostForm("prompt")
	if prompt == "" {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", errMissingField("prompt"))
		return
	}
	model := c.PostForm("model")

	opts, err := videoOptionsFromForm(c)
	if err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", errMissingField("image"))
		return
	}
	if fileHeader.Size > maxReferenceImageBytes {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", errImageTooLarge)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer file.Close()
	image, err := io.ReadAll(io.LimitReader(file, maxReferenceImageBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(image) > maxReferenceImageBytes {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", errImageTooLarge)
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	user := middleware.CurrentUser(c)
	result, err := gh.generationService.SubmitImageToVideo(c.Request.Context(), user.ID, prompt, model, image, mimeType, opts)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}
