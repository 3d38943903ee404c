package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

const imageMaxAttempts = 5

// GenerateImage produces PNG bytes for the prompt via the Imagen :predict
// endpoint. The image permit is held across all retry attempts so a herd of
// retries cannot exceed the concurrency cap.
func (c *Client) GenerateImage(ctx context.Context, prompt string, opts *types.ImageOptions) ([]byte, error) {
	if err := c.acquireImage(ctx); err != nil {
		return nil, err
	}
	defer c.releaseImage()

	if c.cfg.LoadTestMode {
		if err := c.mockDelay(ctx, 2*time.Second, 4*time.Second); err != nil {
			return nil, err
		}
		return []byte("mock-image-data"), nil
	}

	var lastErr error
	for attempt := 1; attempt <= imageMaxAttempts; attempt++ {
		data, err := c.predictImage(ctx, prompt, opts)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == imageMaxAttempts {
			break
		}
		wait := backoffWait(attempt, 2*time.Second, 2*time.Second, 60*time.Second)
		c.log.Warn("Imagen call failed, retrying",
			"attempt", attempt, "wait", wait.String(), "error", err)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) predictImage(ctx context.Context, prompt string, opts *types.ImageOptions) ([]byte, error) {
	parameters := map[string]interface{}{"sampleCount": 1}
	if opts != nil {
		if opts.AspectRatio != nil {
			parameters["aspectRatio"] = *opts.AspectRatio
		}
		if opts.NegativePrompt != nil {
			parameters["negativePrompt"] = *opts.NegativePrompt
		}
		if opts.Seed != nil {
			parameters["seed"] = *opts.Seed
		}
		if opts.GuidanceScale != nil {
			parameters["guidanceScale"] = *opts.GuidanceScale
		}
		if opts.SafetyFilterLevel != nil {
			parameters["safetySetting"] = *opts.SafetyFilterLevel
		}
		if opts.AddWatermark != nil {
			parameters["addWatermark"] = *opts.AddWatermark
		}
		if opts.Language != nil {
			parameters["language"] = *opts.Language
		}
	}
	payload := map[string]interface{}{
		"instances":  []map[string]interface{}{{"prompt": prompt}},
		"parameters": parameters,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL(ImagenModel, "predict"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("imagen request: %w", err)}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("imagen response read: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyProviderError(resp.StatusCode, string(respBody))
	}

	var result struct {
		Predictions []map[string]interface{} `json:"predictions"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("imagen response decode: %w", err)
	}
	if len(result.Predictions) == 0 {
		// Imagen drops filtered samples silently; an empty prediction list
		// is a safety refusal, not a transport failure.
		return nil, fmt.Errorf("%s", defaultSafetyMessage)
	}
	if data, ok := decodeB64Field(result.Predictions[0], "bytesBase64Encoded"); ok {
		return data, nil
	}
	if reason, ok := result.Predictions[0]["raiFilteredReason"].(string); ok && reason != "" {
		if msg, ok := translateSafetyMessage(reason); ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("%s", defaultSafetyMessage)
	}
	return nil, fmt.Errorf("no image data in prediction response")
}

// classifyProviderError sorts a non-200 response into retryable, safety, or
// plain non-retryable, inspecting the combined status/body text by
// substring.
func classifyProviderError(status int, body string) error {
	msg := fmt.Sprintf("%d: %s", status, body)
	if retryableSignal(msg) {
		return &RetryableError{Err: fmt.Errorf("provider error %s", msg)}
	}
	if translated, ok := translateSafetyMessage(msg); ok {
		return fmt.Errorf("%s", translated)
	}
	return fmt.Errorf("provider error %s", msg)
}
