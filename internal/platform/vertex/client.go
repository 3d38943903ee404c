package vertex

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/semaphore"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
)

const (
	ImagenModel = "imagen-3.0-fast-generate-001"
	VeoModel    = "veo-3.0-fast-generate-001"

	// The provider's per-modality rate limits (image 60/min, video 10/min)
	// are the binding constraint; permits cap concurrent calls well below
	// them.
	ImagePermits = 10
	VideoPermits = 3

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

	lroPollInterval = 10 * time.Second
	lroMaxWaitTime  = 600 * time.Second
)

type Config struct {
	Project         string
	Region          string
	CredentialsFile string
	LoadTestMode    bool
}

// Client talks to the Vertex AI REST surface: the synchronous Imagen
// :predict endpoint and the Veo :predictLongRunning / :fetchPredictOperation
// pair. It owns the per-modality permits; a permit is held around the remote
// call (including retries and LRO polling) and released before any
// filesystem work.
type Client struct {
	log *logger.Logger
	cfg Config

	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	baseURL     string

	imageSem   *semaphore.Weighted
	videoSem   *semaphore.Weighted
	imageInUse atomic.Int64
	videoInUse atomic.Int64

	// Overridable in tests.
	pollInterval time.Duration
	lroMaxWait   time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	c := &Client{
		log:          log.With("service", "VertexClient"),
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		imageSem:     semaphore.NewWeighted(ImagePermits),
		videoSem:     semaphore.NewWeighted(VideoPermits),
		pollInterval: lroPollInterval,
		lroMaxWait:   lroMaxWaitTime,
		sleep:        sleepCtx,
	}

	if cfg.LoadTestMode {
		c.log.Info("LOAD_TEST_MODE enabled, skipping GCP auth")
		return c, nil
	}

	if cfg.Project == "" {
		return nil, fmt.Errorf("vertex: GOOGLE_CLOUD_PROJECT is required")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("vertex: read service account file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(context.Background(), data, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("vertex: parse service account credentials: %w", err)
	}
	c.tokenSource = creds.TokenSource
	c.baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", cfg.Region)

	c.log.Info("Vertex client initialized", "project", cfg.Project, "region", cfg.Region)
	return c, nil
}

func (c *Client) modelURL(model, verb string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.baseURL, c.cfg.Project, c.cfg.Region, model, verb)
}

func (c *Client) authorize(req *http.Request) error {
	req.Header.Set("Content-Type", "application/json")
	if c.tokenSource == nil {
		return nil
	}
	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("vertex: fetch access token: %w", err)
	}
	token.SetAuthHeader(req)
	return nil
}

// ImageSlotsInUse and VideoSlotsInUse report currently held permits for the
// admin queue-status endpoint.
func (c *Client) ImageSlotsInUse() int64 { return c.imageInUse.Load() }
func (c *Client) VideoSlotsInUse() int64 { return c.videoInUse.Load() }

func (c *Client) acquireImage(ctx context.Context) error {
	if err := c.imageSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.imageInUse.Add(1)
	return nil
}

func (c *Client) releaseImage() {
	c.imageInUse.Add(-1)
	c.imageSem.Release(1)
}

func (c *Client) acquireVideo(ctx context.Context) error {
	if err := c.videoSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.videoInUse.Add(1)
	return nil
}

func (c *Client) releaseVideo() {
	c.videoInUse.Add(-1)
	c.videoSem.Release(1)
}

func (c *Client) mockDelay(ctx context.Context, min, max time.Duration) error {
	d := min + time.Duration(rand.Int63n(int64(max-min)))
	return c.sleep(ctx, d)
}
