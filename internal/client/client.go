// Package client talks to the filtered-data import server.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/bulkimport/internal/logger"
)

// ImportRequest is the body of a filtered import call.
type ImportRequest struct {
	ID        string `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ImportResponse is the body returned by the import endpoint.
type ImportResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Results  *ImportResults `json:"results,omitempty"`
	Duration string         `json:"duration,omitempty"`
}

type ImportResults struct {
	FilteredRecordsFound int             `json:"filteredRecordsFound"`
	Database             *DatabaseResult `json:"database,omitempty"`
	JSONFile             *JSONFileResult `json:"jsonFile,omitempty"`
}

type DatabaseResult struct {
	RecordsInserted   int `json:"recordsInserted"`
	DuplicatesSkipped int `json:"duplicatesSkipped"`
}

type JSONFileResult struct {
	Filename string `json:"filename"`
}

// HealthResponse is the body returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// Config holds configuration for the import client.
type Config struct {
	ImportURL      string
	HealthURL      string
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
}

// Client issues import and health requests. It never retries on its own.
type Client struct {
	client        *resty.Client
	importURL     string
	healthURL     string
	healthTimeout time.Duration
}

// New creates a new import client.
func New(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(cfg.RequestTimeout)

	healthTimeout := cfg.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 10 * time.Second
	}

	return &Client{
		client:        client,
		importURL:     cfg.ImportURL,
		healthURL:     cfg.HealthURL,
		healthTimeout: healthTimeout,
	}
}

// Import performs a single import call. Any failure is returned as a
// *TransportError, *ProtocolError or *ApplicationError.
func (c *Client) Import(ctx context.Context, req ImportRequest) (*ImportResponse, error) {
	logger.CtxDebug(ctx, "POST %s id=%s range=%s..%s", c.importURL, req.ID, req.StartDate, req.EndDate)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.importURL)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	logger.With(logger.Fields{"content_type": contentType(resp)}).
		WithStatus(resp.StatusCode()).
		Info(ctx, "Response received: status=%d", resp.StatusCode())

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, &ProtocolError{StatusCode: resp.StatusCode(), Body: preview(body)}
	}

	var result *ImportResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ProtocolError{StatusCode: resp.StatusCode(), Body: preview(body), Err: err}
	}

	if result == nil {
		return nil, &ApplicationError{Message: "Empty response"}
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &ApplicationError{Message: msg}
	}

	return result, nil
}

// Health probes the health endpoint and returns the reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.healthURL)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &ProtocolError{StatusCode: resp.StatusCode(), Body: preview(resp.Body())}
	}

	var health HealthResponse
	if err := json.Unmarshal(resp.Body(), &health); err != nil {
		return "", &ProtocolError{StatusCode: resp.StatusCode(), Body: preview(resp.Body()), Err: err}
	}

	if health.Status == "" {
		return "OK", nil
	}
	return health.Status, nil
}

// Endpoint returns the import URL this client posts to.
func (c *Client) Endpoint() string {
	return c.importURL
}

func contentType(resp *resty.Response) string {
	if ct := resp.Header().Get("Content-Type"); ct != "" {
		return ct
	}
	return "unknown"
}
