// Package buildkite provides a client for interacting with the Buildkite API.
package buildkite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"xcreport/src/provider"
)

const (
	// APIBaseURL is the base URL for the Buildkite API.
	APIBaseURL = "https://api.buildkite.com/v2"
)

// Client is a Buildkite API client.
type Client struct {
	apiToken   string
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Build represents a Buildkite build.
type Build struct {
	ID        string    `json:"id"`
	Number    int       `json:"number"`
	State     string    `json:"state"`
	WebURL    string    `json:"web_url"`
	Branch    string    `json:"branch"`
	Commit    string    `json:"commit"`
	CreatedAt time.Time `json:"created_at"`
	Jobs      []Job     `json:"jobs"`
}

// Job represents a Buildkite job within a build. Only script jobs have logs.
type Job struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	State      string    `json:"state"`
	ExitStatus *int      `json:"exit_status"`
	CreatedAt  time.Time `json:"created_at"`
	RawLogURL  string    `json:"raw_log_url"`
}

// NewClient creates a new Buildkite API client.
func NewClient(apiToken string, opts ...Option) *Client {
	c := &Client{
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: APIBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBuild fetches a build's metadata from the Buildkite API.
func (c *Client) GetBuild(ctx context.Context, org, pipeline, buildNumber string) (*Build, error) {
	endpoint := fmt.Sprintf("%s/organizations/%s/pipelines/%s/builds/%s",
		c.baseURL, url.PathEscape(org), url.PathEscape(pipeline), url.PathEscape(buildNumber))

	resp, err := c.get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var build Build
	if err := json.NewDecoder(resp.Body).Decode(&build); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &build, nil
}

// JobLogURL is the raw log endpoint of a job, for jobs that came without raw_log_url.
func (c *Client) JobLogURL(org, pipeline, buildNumber, jobID string) string {
	return fmt.Sprintf("%s/organizations/%s/pipelines/%s/builds/%s/jobs/%s/log",
		c.baseURL, url.PathEscape(org), url.PathEscape(pipeline), url.PathEscape(buildNumber), url.PathEscape(jobID))
}

// GetJobLogByURL fetches the raw log content using the raw_log_url from the job metadata.
func (c *Client) GetJobLogByURL(ctx context.Context, rawLogURL string) (string, error) {
	resp, err := c.get(ctx, rawLogURL, "text/plain")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	logBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read log content: %w", err)
	}
	return string(logBytes), nil
}

func (c *Client) get(ctx context.Context, endpoint, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if err := provider.CheckResponse(resp, http.StatusOK); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
