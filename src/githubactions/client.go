// Package githubactions fetches workflow runs and job logs from GitHub Actions.
package githubactions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"xcreport/src/provider"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// perPage is GitHub's maximum page size for job listings.
const perPage = 100

// Client is a GitHub Actions API client
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at GitHub Enterprise or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a new GitHub Actions client
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetWorkflowRun fetches workflow run metadata
func (c *Client) GetWorkflowRun(ctx context.Context, owner, repo, runID string) (*WorkflowRun, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%s", c.baseURL, owner, repo, runID)

	var run WorkflowRun
	if err := c.getJSON(ctx, url, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetWorkflowJobs fetches jobs for a workflow run (handles pagination)
func (c *Client) GetWorkflowJobs(ctx context.Context, owner, repo, runID string) ([]WorkflowJob, error) {
	var allJobs []WorkflowJob
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%s/jobs?per_page=%d&page=%d",
			c.baseURL, owner, repo, runID, perPage, page)

		var jobsResp WorkflowJobsResponse
		if err := c.getJSON(ctx, url, &jobsResp); err != nil {
			return nil, err
		}
		allJobs = append(allJobs, jobsResp.Jobs...)

		if len(allJobs) >= jobsResp.TotalCount || len(jobsResp.Jobs) < perPage {
			return allJobs, nil
		}
	}
}

// GetJobLogs downloads the plain-text log of a job. The API answers with a redirect to
// short-lived storage, which is fetched without the API token.
func (c *Client) GetJobLogs(ctx context.Context, owner, repo string, jobID int64) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/jobs/%d/logs", c.baseURL, owner, repo, jobID)

	req, err := c.newRequest(ctx, url)
	if err != nil {
		return "", err
	}

	noRedirect := &http.Client{
		Timeout:   c.httpClient.Timeout,
		Transport: c.httpClient.Transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse(resp, http.StatusFound); err != nil {
		return "", err
	}
	logURL, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("no redirect location for logs: %w", err)
	}

	logReq, err := http.NewRequestWithContext(ctx, http.MethodGet, logURL.String(), nil)
	if err != nil {
		return "", err
	}
	logResp, err := c.httpClient.Do(logReq)
	if err != nil {
		return "", err
	}
	defer logResp.Body.Close()

	if err := provider.CheckResponse(logResp, http.StatusOK); err != nil {
		return "", err
	}
	body, err := io.ReadAll(logResp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse(resp, http.StatusOK); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
