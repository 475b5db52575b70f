package githubactions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"xcreport/src/provider"
)

var testRef = &provider.BuildRef{
	Provider: "github",
	BuildID:  "42",
	Metadata: map[string]string{"owner": "acme", "repo": "ios-app"},
}

const rawLog = "\ufeff2024-03-01T10:00:00.1000000Z === BUILD TARGET App OF PROJECT App WITH CONFIGURATION Debug ===\n" +
	"2024-03-01T10:00:05.2000000Z ** BUILD FAILED **\n"

func newTestServer(t *testing.T, jobCount int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/acme/ios-app/actions/runs/42", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(WorkflowRun{
			ID: 42, RunNumber: 7, HeadBranch: "feature/login", HeadSHA: "9f8e7d6c5b4a", Status: "completed", Conclusion: "failure",
			HTMLURL: "https://github.com/acme/ios-app/actions/runs/42", CreatedAt: time.Unix(0, 0).UTC(),
		})
	})
	mux.HandleFunc("/repos/acme/ios-app/actions/runs/42/jobs", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		var jobs []WorkflowJob
		start, end := 0, jobCount
		if jobCount > perPage {
			if page == "1" {
				end = perPage
			} else {
				start = perPage
			}
		}
		for i := start; i < end; i++ {
			job := WorkflowJob{ID: int64(100 + i), RunID: 42, Name: fmt.Sprintf("job %d", i), Status: "completed", Conclusion: "success"}
			if i == 0 {
				job.Name, job.Conclusion = "Build iOS", "failure"
			}
			jobs = append(jobs, job)
		}
		_ = json.NewEncoder(w).Encode(WorkflowJobsResponse{TotalCount: jobCount, Jobs: jobs})
	})
	mux.HandleFunc("/repos/acme/ios-app/actions/jobs/100/logs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/blob/logs/100.txt", http.StatusFound)
	})
	mux.HandleFunc("/blob/logs/100.txt", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(rawLog))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProvider_FetchBuild(t *testing.T) {
	srv := newTestServer(t, 2)
	p := NewProvider("gh-token", WithBaseURL(srv.URL))

	build, err := p.FetchBuild(context.Background(), testRef)
	if err != nil {
		t.Fatalf("FetchBuild() error = %v", err)
	}
	if build.ID != "42" || build.Number != "7" || build.State != "failed" {
		t.Errorf("build = %+v, want id 42 number 7 state failed", build)
	}
	if build.Branch != "feature/login" || build.Commit != "9f8e7d6c5b4a" {
		t.Errorf("branch/commit = %q/%q", build.Branch, build.Commit)
	}
	if len(build.Jobs) != 2 {
		t.Fatalf("len(Jobs) = %d, want 2", len(build.Jobs))
	}
	if job := build.Jobs[0]; job.ID != "100" || job.State != "failed" || !job.Failed() {
		t.Errorf("Jobs[0] = %+v, want failed job 100", job)
	}
	if build.Jobs[1].Failed() {
		t.Errorf("Jobs[1] = %+v, want passed", build.Jobs[1])
	}
}

func TestProvider_FetchBuildPaginates(t *testing.T) {
	srv := newTestServer(t, perPage+1)
	p := NewProvider("gh-token", WithBaseURL(srv.URL))

	build, err := p.FetchBuild(context.Background(), testRef)
	if err != nil {
		t.Fatalf("FetchBuild() error = %v", err)
	}
	if len(build.Jobs) != perPage+1 {
		t.Errorf("len(Jobs) = %d, want %d", len(build.Jobs), perPage+1)
	}
}

func TestProvider_FetchJobLog(t *testing.T) {
	srv := newTestServer(t, 1)
	p := NewProvider("gh-token", WithBaseURL(srv.URL))

	content, err := p.FetchJobLog(context.Background(), testRef, provider.Job{ID: "100"})
	if err != nil {
		t.Fatalf("FetchJobLog() error = %v", err)
	}
	want := "=== BUILD TARGET App OF PROJECT App WITH CONFIGURATION Debug ===\n** BUILD FAILED **\n"
	if content != want {
		t.Errorf("FetchJobLog() = %q, want %q", content, want)
	}

	if _, err := p.FetchJobLog(context.Background(), testRef, provider.Job{ID: "abc"}); err == nil {
		t.Error("FetchJobLog(abc) error = nil, want invalid job ID")
	}

	_, err = p.FetchJobLog(context.Background(), testRef, provider.Job{ID: "999"})
	if !errors.Is(err, provider.ErrBuildNotFound) {
		t.Errorf("FetchJobLog(999) error = %v, want ErrBuildNotFound", err)
	}
}

func TestProvider_AuthFailure(t *testing.T) {
	srv := newTestServer(t, 1)
	p := NewProvider("wrong", WithBaseURL(srv.URL))

	_, err := p.FetchBuild(context.Background(), testRef)
	if !errors.Is(err, provider.ErrAuthFailed) {
		t.Errorf("FetchBuild() error = %v, want ErrAuthFailed", err)
	}
}

func TestMapGitHubStatus(t *testing.T) {
	tests := []struct {
		status, conclusion, want string
	}{
		{"completed", "success", "passed"},
		{"completed", "failure", "failed"},
		{"completed", "cancelled", "canceled"},
		{"completed", "timed_out", "timed_out"},
		{"in_progress", "", "in_progress"},
		{"queued", "", "queued"},
	}
	for _, tt := range tests {
		if got := mapGitHubStatus(tt.status, tt.conclusion); got != tt.want {
			t.Errorf("mapGitHubStatus(%q, %q) = %q, want %q", tt.status, tt.conclusion, got, tt.want)
		}
	}
}
