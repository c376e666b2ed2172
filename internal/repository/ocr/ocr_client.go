package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veersingh9540/DocumentDigitization-v1/internal/domain/entity"
)

// Client talks to the external text/structure extraction service over HTTP.
// The service accepts raw document bytes and answers either synchronously
// or with a job id to poll.
type Client struct {
	BaseURL      string
	APIKey       string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
}

type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 2 * time.Minute
	}
	return &Client{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		HTTPClient:   &http.Client{Timeout: cfg.Timeout},
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
	}
}

type analyzeResponse struct {
	Status string                  `json:"status"`
	JobID  string                  `json:"job_id"`
	Error  string                  `json:"error"`
	Result entity.ExtractionResult `json:"result"`
}

// Extract submits the document and, if the service answers with a job id,
// polls until it settles. Service-side and network failures are classified
// into the transient/rejected taxonomy for the caller's retry policy.
func (c *Client) Extract(ctx context.Context, fileName string, content []byte) (entity.ExtractionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/analyze", bytes.NewReader(content))
	if err != nil {
		return entity.ExtractionResult{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-File-Name", fileName)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.do(req)
	if err != nil {
		return entity.ExtractionResult{}, err
	}

	switch resp.Status {
	case "succeeded":
		return resp.Result, nil
	case "failed":
		return entity.ExtractionResult{}, fmt.Errorf("%s: %w", resp.Error, entity.ErrExtractionRejected)
	}

	if resp.JobID == "" {
		return entity.ExtractionResult{}, fmt.Errorf("no job id in response: %w", entity.ErrExtractionTransient)
	}
	return c.poll(ctx, resp.JobID)
}

// poll waits for the job to settle, bounded by PollTimeout so a job stuck
// in running cannot hold the caller forever. Expiry is transient: the job
// may still finish, a later attempt can pick it up.
func (c *Client) poll(ctx context.Context, jobID string) (entity.ExtractionResult, error) {
	deadline := time.NewTimer(c.PollTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return entity.ExtractionResult{}, fmt.Errorf("extraction poll: %w", ctx.Err())
		case <-deadline.C:
			return entity.ExtractionResult{}, fmt.Errorf("job %s still running after %s: %w", jobID, c.PollTimeout, entity.ErrExtractionTransient)
		case <-time.After(c.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/jobs/"+jobID, nil)
		if err != nil {
			return entity.ExtractionResult{}, err
		}
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := c.do(req)
		if err != nil {
			return entity.ExtractionResult{}, err
		}

		switch resp.Status {
		case "succeeded":
			return resp.Result, nil
		case "failed":
			return entity.ExtractionResult{}, fmt.Errorf("%s: %w", resp.Error, entity.ErrExtractionRejected)
		}
	}
}

func (c *Client) do(req *http.Request) (*analyzeResponse, error) {
	httpResp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %v: %w", err, entity.ErrExtractionTransient)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("extraction response read: %v: %w", err, entity.ErrExtractionTransient)
	}

	switch {
	case httpResp.StatusCode == http.StatusOK || httpResp.StatusCode == http.StatusAccepted:
	case httpResp.StatusCode == http.StatusRequestEntityTooLarge,
		httpResp.StatusCode == http.StatusUnsupportedMediaType,
		httpResp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("extraction status %d: %w", httpResp.StatusCode, entity.ErrExtractionRejected)
	default:
		return nil, fmt.Errorf("extraction status %d: %w", httpResp.StatusCode, entity.ErrExtractionTransient)
	}

	var resp analyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("extraction response decode: %v: %w", err, entity.ErrExtractionTransient)
	}
	return &resp, nil
}
