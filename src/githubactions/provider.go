package githubactions

import (
	"context"
	"fmt"
	"strconv"

	"xcreport/src/provider"
	"xcreport/src/sanitize"
)

func init() {
	provider.RegisterProvider("github", func(token string) provider.Provider {
		return NewProvider(token)
	})
}

// Provider implements provider.Provider for GitHub Actions
type Provider struct {
	client *Client
}

// NewProvider creates a GitHub Actions provider with API token
func NewProvider(token string, opts ...Option) *Provider {
	return &Provider{
		client: NewClient(token, opts...),
	}
}

// Name returns "github"
func (p *Provider) Name() string {
	return "github"
}

// FetchBuild retrieves workflow run metadata and its jobs.
func (p *Provider) FetchBuild(ctx context.Context, ref *provider.BuildRef) (*provider.Build, error) {
	owner, repo, runID := ref.Metadata["owner"], ref.Metadata["repo"], ref.BuildID

	run, err := p.client.GetWorkflowRun(ctx, owner, repo, runID)
	if err != nil {
		return nil, err
	}

	jobs, err := p.client.GetWorkflowJobs(ctx, owner, repo, runID)
	if err != nil {
		return nil, err
	}

	build := &provider.Build{
		ID:        strconv.FormatInt(run.ID, 10),
		Number:    strconv.Itoa(run.RunNumber),
		URL:       run.HTMLURL,
		Branch:    run.HeadBranch,
		Commit:    run.HeadSHA,
		State:     mapGitHubStatus(run.Status, run.Conclusion),
		Timestamp: run.CreatedAt,
		Jobs:      make([]provider.Job, 0, len(jobs)),
	}

	for _, ghJob := range jobs {
		exitCode := 0
		if ghJob.Conclusion == "failure" {
			exitCode = 1
		}
		build.Jobs = append(build.Jobs, provider.Job{
			ID:        strconv.FormatInt(ghJob.ID, 10),
			Name:      ghJob.Name,
			State:     mapGitHubStatus(ghJob.Status, ghJob.Conclusion),
			ExitCode:  exitCode,
			Timestamp: ghJob.StartedAt,
		})
	}

	return build, nil
}

// FetchJobLog downloads a job log and removes the time prefix GitHub adds to every line.
func (p *Provider) FetchJobLog(ctx context.Context, ref *provider.BuildRef, job provider.Job) (string, error) {
	id, err := strconv.ParseInt(job.ID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid job ID %q: %w", job.ID, err)
	}
	content, err := p.client.GetJobLogs(ctx, ref.Metadata["owner"], ref.Metadata["repo"], id)
	if err != nil {
		return "", err
	}
	return sanitize.StripTimestamps(content), nil
}

// mapGitHubStatus maps GitHub status/conclusion to Buildkite-like state
func mapGitHubStatus(status, conclusion string) string {
	if status == "completed" {
		switch conclusion {
		case "success":
			return "passed"
		case "failure":
			return "failed"
		case "cancelled":
			return "canceled"
		default:
			return conclusion
		}
	}
	return status
}
