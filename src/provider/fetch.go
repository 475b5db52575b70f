package provider

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency bounds parallel log downloads.
const DefaultFetchConcurrency = 4

// JobLog is the console output of one job.
type JobLog struct {
	Job     Job
	Content string
}

// SelectJobs filters jobs by failure and by a case-insensitive name substring.
// An empty name matches every job.
func SelectJobs(jobs []Job, failedOnly bool, name string) []Job {
	name = strings.ToLower(name)
	var out []Job
	for _, job := range jobs {
		if failedOnly && !job.Failed() {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(job.Name), name) {
			continue
		}
		out = append(out, job)
	}
	return out
}

// FetchLogs downloads the logs of jobs, at most limit at a time. The result keeps the
// order of jobs. The first failure cancels the remaining downloads.
func FetchLogs(ctx context.Context, p Provider, ref *BuildRef, jobs []Job, limit int) ([]JobLog, error) {
	logs := make([]JobLog, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			content, err := p.FetchJobLog(ctx, ref, job)
			if err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
			logs[i] = JobLog{Job: job, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return logs, nil
}
