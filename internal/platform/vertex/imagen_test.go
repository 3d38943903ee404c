package vertex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return &Client{
		log:          log.With("service", "VertexClient"),
		cfg:          Config{Project: "proj", Region: "region"},
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		baseURL:      baseURL,
		imageSem:     semaphore.NewWeighted(ImagePermits),
		videoSem:     semaphore.NewWeighted(VideoPermits),
		pollInterval: time.Millisecond,
		lroMaxWait:   time.Second,
		sleep:        func(ctx context.Context, d time.Duration) error { return nil },
	}
}

func TestGenerateImageSuccess(t *testing.T) {
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":predict") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []map[string]interface{}{{"bytesBase64Encoded": b64("img")}},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	ratio := "16:9"
	data, err := c.GenerateImage(context.Background(), "a fox", &types.ImageOptions{AspectRatio: &ratio})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(data) != "img" {
		t.Fatalf("data=%q", data)
	}

	params, _ := gotPayload["parameters"].(map[string]interface{})
	if params["aspectRatio"] != "16:9" {
		t.Fatalf("aspectRatio not forwarded: %v", params)
	}
	if params["sampleCount"] != float64(1) {
		t.Fatalf("sampleCount=%v, want 1", params["sampleCount"])
	}
	if c.ImageSlotsInUse() != 0 {
		t.Fatalf("image permit not released")
	}
}

func TestGenerateImageRetriesOnRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []map[string]interface{}{{"bytesBase64Encoded": b64("img")}},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	var waits []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	data, err := c.GenerateImage(context.Background(), "a fox", nil)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(data) != "img" || attempts != 3 {
		t.Fatalf("data=%q attempts=%d", data, attempts)
	}
	if len(waits) != 2 || waits[0] != 2*time.Second || waits[1] != 4*time.Second {
		t.Fatalf("backoff waits=%v, want [2s 4s]", waits)
	}
}

func TestGenerateImageGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("503 UNAVAILABLE"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.GenerateImage(context.Background(), "a fox", nil); err == nil {
		t.Fatalf("persistent 503 did not fail")
	}
	if attempts != imageMaxAttempts {
		t.Fatalf("attempts=%d, want %d", attempts, imageMaxAttempts)
	}
}

func TestGenerateImageSafetyRefusalNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("The prompt violates usage guidelines"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateImage(context.Background(), "bad prompt", nil)
	if err == nil {
		t.Fatalf("refusal did not fail")
	}
	if !strings.Contains(err.Error(), "이용 정책을 위반") {
		t.Fatalf("error not translated: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts=%d, want 1 (safety refusals are final)", attempts)
	}
}

func TestGenerateImageEmptyPredictionsIsSafetyRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"predictions": []interface{}{}})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateImage(context.Background(), "a fox", nil)
	if err == nil || err.Error() != defaultSafetyMessage {
		t.Fatalf("err=%v, want default safety message", err)
	}
}

func TestGenerateImageFilteredReasonTranslated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"predictions": []map[string]interface{}{{"raiFilteredReason": "Child content detected"}},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GenerateImage(context.Background(), "a fox", nil)
	if err == nil || !strings.Contains(err.Error(), "아동 관련 콘텐츠") {
		t.Fatalf("err=%v, want child-content translation", err)
	}
}

func TestGenerateImageLoadTestModeSkipsProvider(t *testing.T) {
	c := testClient(t, "http://unused.invalid")
	c.cfg.LoadTestMode = true
	data, err := c.GenerateImage(context.Background(), "a fox", nil)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(data) != "mock-image-data" {
		t.Fatalf("data=%q", data)
	}
}
