package provider

import "time"

// BuildRef identifies a build in a CI system.
type BuildRef struct {
	Provider string            // "buildkite" or "github"
	BuildID  string            // build number or workflow run id
	Metadata map[string]string // org/pipeline or owner/repo
}

// Build represents a CI build with jobs.
type Build struct {
	ID        string
	Number    string
	URL       string
	State     string
	Branch    string
	Commit    string
	Timestamp time.Time
	Jobs      []Job
}

// Describe returns a one-line label such as "build 42 (main @ 1a2b3c4)".
func (b *Build) Describe() string {
	label := "build " + b.Number
	commit := b.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	switch {
	case b.Branch != "" && commit != "":
		label += " (" + b.Branch + " @ " + commit + ")"
	case b.Branch != "":
		label += " (" + b.Branch + ")"
	}
	return label
}

// Job represents a single job within a build.
type Job struct {
	ID        string
	Name      string
	State     string
	ExitCode  int
	Timestamp time.Time
	// LogURL is where the raw log lives, when the CI API hands one out.
	LogURL string
}

// Failed reports whether the job finished unsuccessfully.
func (j Job) Failed() bool {
	switch j.State {
	case "failed", "timed_out", "broken":
		return true
	}
	return j.ExitCode != 0
}
