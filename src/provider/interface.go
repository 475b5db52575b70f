// Package provider fetches xcodebuild console logs from CI systems.
package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

var (
	ErrInvalidURL      = errors.New("invalid build URL")
	ErrProviderUnknown = errors.New("unknown CI provider")
)

// Provider defines the interface for CI platform integrations.
type Provider interface {
	// Name returns the provider name ("buildkite", "github").
	Name() string

	// FetchBuild retrieves build metadata and the jobs that produce logs.
	FetchBuild(ctx context.Context, ref *BuildRef) (*Build, error)

	// FetchJobLog retrieves the console output of one job with CI decorations removed.
	FetchJobLog(ctx context.Context, ref *BuildRef, job Job) (string, error)
}

// Factory creates a provider authenticated with token.
type Factory func(token string) Provider

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterProvider makes a provider available to GetProvider. Provider packages call it
// from init.
func RegisterProvider(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Registered lists the registered provider names in order.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProvider returns the provider implementation for a build ref.
func GetProvider(ref *BuildRef, token string) (Provider, error) {
	mu.RLock()
	factory, ok := factories[ref.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnknown, ref.Provider)
	}
	return factory(token), nil
}

var (
	buildkiteURLPattern = regexp.MustCompile(`^https://buildkite\.com/([^/]+)/([^/]+)/builds/(\d+)`)
	githubURLPattern    = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/actions/runs/(\d+)`)
)

// ParseURL detects the provider and parses the build reference from a web URL.
func ParseURL(url string) (*BuildRef, error) {
	if matches := buildkiteURLPattern.FindStringSubmatch(url); matches != nil {
		return &BuildRef{
			Provider: "buildkite",
			BuildID:  matches[3],
			Metadata: map[string]string{
				"org":      matches[1],
				"pipeline": matches[2],
			},
		}, nil
	}

	if matches := githubURLPattern.FindStringSubmatch(url); matches != nil {
		return &BuildRef{
			Provider: "github",
			BuildID:  matches[3],
			Metadata: map[string]string{
				"owner": matches[1],
				"repo":  matches[2],
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
}
