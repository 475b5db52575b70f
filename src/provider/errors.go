package provider

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"xcreport/src/config"
)

var (
	ErrAuthFailed     = errors.New("authentication failed")
	ErrBuildNotFound  = errors.New("build not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrNetworkTimeout = errors.New("network timeout")
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 1024

// StatusError is returned when a CI API answers with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Is maps well-known statuses onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrAuthFailed
	case http.StatusNotFound:
		return target == ErrBuildNotFound
	case http.StatusTooManyRequests:
		return target == ErrRateLimited
	}
	return false
}

// CheckResponse returns a StatusError unless resp has one of the wanted statuses.
func CheckResponse(resp *http.Response, want ...int) error {
	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// WrapError converts API errors to user-friendly messages.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, ErrInvalidURL):
		return &config.UserError{
			Message: "Invalid build URL",
			Hint:    "Supported formats:\n  - https://buildkite.com/org/pipeline/builds/123\n  - https://github.com/owner/repo/actions/runs/456",
			Err:     err,
		}
	case errors.Is(err, ErrAuthFailed):
		return &config.UserError{
			Message: "Authentication failed",
			Hint:    "Check that your API token is valid and has the correct permissions.\n  - Buildkite: Set " + config.EnvBuildkiteToken + "\n  - GitHub: Set " + config.EnvGitHubToken,
			Err:     err,
		}
	case errors.Is(err, ErrBuildNotFound):
		return &config.UserError{
			Message: "Build not found",
			Hint:    "Check that the build URL is correct and you have access to the repository.",
			Err:     err,
		}
	case errors.Is(err, ErrRateLimited):
		return &config.UserError{
			Message: "Rate limited by the CI API",
			Hint:    "Wait a minute and retry, or fetch fewer jobs with --job.",
			Err:     err,
		}
	case errors.Is(err, ErrNetworkTimeout), errors.As(err, &netErr) && netErr.Timeout():
		return &config.UserError{
			Message: "Request to the CI API timed out",
			Hint:    "Check your network connection and retry.",
			Err:     err,
		}
	}
	return err
}
