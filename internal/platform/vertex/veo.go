package vertex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

const veoStartMaxAttempts = 3

// GenerateVideoFromText produces MP4 bytes for the prompt via the Veo
// long-running-operation protocol.
func (c *Client) GenerateVideoFromText(ctx context.Context, prompt string, opts *types.VideoOptions) ([]byte, error) {
	return c.generateVideo(ctx, prompt, nil, "", opts)
}

// GenerateVideoFromImage animates a reference image guided by the prompt.
func (c *Client) GenerateVideoFromImage(ctx context.Context, prompt string, image []byte, mimeType string, opts *types.VideoOptions) ([]byte, error) {
	return c.generateVideo(ctx, prompt, image, mimeType, opts)
}

func (c *Client) generateVideo(ctx context.Context, prompt string, image []byte, mimeType string, opts *types.VideoOptions) ([]byte, error) {
	// The permit covers start + poll; extraction happens after release so
	// decoding does not occupy a video slot.
	result, err := c.runVideoOperation(ctx, prompt, image, mimeType, opts)
	if err != nil {
		return nil, err
	}
	if c.cfg.LoadTestMode {
		return []byte("mock-video-data"), nil
	}
	return extractVideoBytes(result)
}

func (c *Client) runVideoOperation(ctx context.Context, prompt string, image []byte, mimeType string, opts *types.VideoOptions) (map[string]interface{}, error) {
	if err := c.acquireVideo(ctx); err != nil {
		return nil, err
	}
	defer c.releaseVideo()

	if c.cfg.LoadTestMode {
		if err := c.mockDelay(ctx, 3*time.Second, 6*time.Second); err != nil {
			return nil, err
		}
		return nil, nil
	}

	operationName, err := c.startVideoOperation(ctx, prompt, image, mimeType, opts)
	if err != nil {
		return nil, err
	}
	return c.pollOperation(ctx, operationName)
}

// startVideoOperation POSTs to :predictLongRunning and returns the opaque
// operation name. HTTP 429 and >=500 are retried with backoff; other
// non-200 responses fail the job (translated when they match a safety
// pattern).
func (c *Client) startVideoOperation(ctx context.Context, prompt string, image []byte, mimeType string, opts *types.VideoOptions) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= veoStartMaxAttempts; attempt++ {
		name, err := c.postStart(ctx, prompt, image, mimeType, opts)
		if err == nil {
			return name, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == veoStartMaxAttempts {
			break
		}
		wait := backoffWait(attempt, 2*time.Second, 5*time.Second, 30*time.Second)
		c.log.Warn("Veo start failed, retrying",
			"attempt", attempt, "wait", wait.String(), "error", err)
		if err := c.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (c *Client) postStart(ctx context.Context, prompt string, image []byte, mimeType string, opts *types.VideoOptions) (string, error) {
	instance := map[string]interface{}{"prompt": prompt}
	if len(image) > 0 {
		if mimeType == "" {
			mimeType = "image/png"
		}
		instance["image"] = map[string]interface{}{
			"bytesBase64Encoded": base64.StdEncoding.EncodeToString(image),
			"mimeType":           mimeType,
		}
	}

	parameters := map[string]interface{}{
		"sampleCount":     1,
		"durationSeconds": 8,
		"aspectRatio":     "16:9",
	}
	if opts != nil {
		if opts.DurationSeconds != nil {
			parameters["durationSeconds"] = *opts.DurationSeconds
		}
		if opts.AspectRatio != nil {
			parameters["aspectRatio"] = *opts.AspectRatio
		}
		if opts.NegativePrompt != nil {
			parameters["negativePrompt"] = *opts.NegativePrompt
		}
		if opts.Seed != nil {
			parameters["seed"] = *opts.Seed
		}
		if opts.GenerateAudio != nil {
			parameters["generateAudio"] = *opts.GenerateAudio
		}
		if opts.Resolution != nil {
			parameters["resolution"] = *opts.Resolution
		}
	}

	payload := map[string]interface{}{
		"instances":  []map[string]interface{}{instance},
		"parameters": parameters,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL(VeoModel, "predictLongRunning"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if err := c.authorize(req); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RetryableError{Err: fmt.Errorf("veo start request: %w", err)}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RetryableError{Err: fmt.Errorf("veo start response read: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &RetryableError{Err: fmt.Errorf("rate limit exceeded: %s", respBody)}
	case resp.StatusCode >= 500:
		return "", &RetryableError{Err: fmt.Errorf("server error %d: %s", resp.StatusCode, respBody)}
	case resp.StatusCode != http.StatusOK:
		if translated, ok := translateSafetyMessage(string(respBody)); ok {
			return "", fmt.Errorf("%s", translated)
		}
		return "", fmt.Errorf("client error %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("veo start response decode: %w", err)
	}
	if result.Name == "" {
		return "", fmt.Errorf("no operation name in response: %s", respBody)
	}
	c.log.Info("Veo operation started", "operation", result.Name)
	return result.Name, nil
}

// pollOperation POSTs {operationName} to :fetchPredictOperation every poll
// interval until done:true, failing after the wall-clock budget. A 200 with
// an error field is a terminal failure.
func (c *Client) pollOperation(ctx context.Context, operationName string) (map[string]interface{}, error) {
	body, err := json.Marshal(map[string]string{"operationName": operationName})
	if err != nil {
		return nil, err
	}
	url := c.modelURL(VeoModel, "fetchPredictOperation")
	start := time.Now()

	for {
		if elapsed := time.Since(start); elapsed > c.lroMaxWait {
			return nil, fmt.Errorf("veo operation timed out after %d seconds", int(c.lroMaxWait.Seconds()))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if err := c.authorize(req); err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("veo poll request: %w", err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("veo poll response read: %w", readErr)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to poll operation: %d - %s", resp.StatusCode, respBody)
		}

		var result map[string]interface{}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return nil, fmt.Errorf("veo poll response decode: %w", err)
		}

		if done, _ := result["done"].(bool); done {
			c.log.Info("Veo operation completed", "elapsed", time.Since(start).String())
			if opErr, ok := result["error"].(map[string]interface{}); ok {
				rawMsg, _ := opErr["message"].(string)
				if rawMsg == "" {
					rawMsg = fmt.Sprintf("%v", opErr)
				}
				if translated, ok := translateSafetyMessage(rawMsg); ok {
					return nil, fmt.Errorf("%s", translated)
				}
				return nil, fmt.Errorf("veo operation failed: %s", rawMsg)
			}
			if response, ok := result["response"].(map[string]interface{}); ok {
				return response, nil
			}
			return result, nil
		}

		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}
