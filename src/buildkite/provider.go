package buildkite

import (
	"context"
	"strconv"

	"xcreport/src/provider"
	"xcreport/src/sanitize"
)

func init() {
	provider.RegisterProvider("buildkite", func(token string) provider.Provider {
		return NewProvider(token)
	})
}

// Provider implements provider.Provider for Buildkite.
type Provider struct {
	client *Client
}

// NewProvider creates a Buildkite provider with API token.
func NewProvider(token string, opts ...Option) *Provider {
	return &Provider{
		client: NewClient(token, opts...),
	}
}

// Name returns "buildkite".
func (p *Provider) Name() string {
	return "buildkite"
}

// FetchBuild retrieves build metadata and its script jobs.
func (p *Provider) FetchBuild(ctx context.Context, ref *provider.BuildRef) (*provider.Build, error) {
	bkBuild, err := p.client.GetBuild(ctx, ref.Metadata["org"], ref.Metadata["pipeline"], ref.BuildID)
	if err != nil {
		return nil, err
	}

	build := &provider.Build{
		ID:        bkBuild.ID,
		Number:    strconv.Itoa(bkBuild.Number),
		URL:       bkBuild.WebURL,
		Branch:    bkBuild.Branch,
		Commit:    bkBuild.Commit,
		State:     bkBuild.State,
		Timestamp: bkBuild.CreatedAt,
		Jobs:      make([]provider.Job, 0, len(bkBuild.Jobs)),
	}

	for _, job := range bkBuild.Jobs {
		// Waiters, block steps and triggers have no console output.
		if job.Type != "script" {
			continue
		}
		exitCode := 0
		if job.ExitStatus != nil {
			exitCode = *job.ExitStatus
		}
		build.Jobs = append(build.Jobs, provider.Job{
			ID:        job.ID,
			Name:      job.Name,
			State:     job.State,
			ExitCode:  exitCode,
			Timestamp: job.CreatedAt,
			LogURL:    job.RawLogURL,
		})
	}

	return build, nil
}

// FetchJobLog downloads the raw log of a job without Buildkite timestamp markers and
// color escapes.
func (p *Provider) FetchJobLog(ctx context.Context, ref *provider.BuildRef, job provider.Job) (string, error) {
	logURL := job.LogURL
	if logURL == "" {
		logURL = p.client.JobLogURL(ref.Metadata["org"], ref.Metadata["pipeline"], ref.BuildID, job.ID)
	}
	content, err := p.client.GetJobLogByURL(ctx, logURL)
	if err != nil {
		return "", err
	}
	return sanitize.StripANSI(content), nil
}
