package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xcreport/src/contracts"
	"xcreport/src/logger"
	"xcreport/src/store"
)

const sampleLog = `=== BUILD TARGET App OF PROJECT App WITH CONFIGURATION Debug ===
Check dependencies

CompileC main.o /Users/ci/src/App/Sources/main.m normal
/Users/ci/src/App/Sources/main.m:3:5: warning: unused variable 'x'
/Users/ci/src/App/Sources/main.m:9:5: warning: unused variable 'x'
/Users/ci/src/App/Sources/main.m:16:42: error: expected ';' after expression

CompileC util.o /Users/ci/src/App/Sources/util.m normal
/Users/ci/src/App/Sources/util.m:7:1: warning: unused variable 'y'


** BUILD FAILED **
`

func newTestServer(t *testing.T) (*Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	srv := NewServer(st, logger.NewSilentLogger())
	n := 0
	srv.newRunID = func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
	return srv, st
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "tool error: %s", resultText(t, res))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

func TestParseBuildLog(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	res, err := srv.handleParseBuildLog(ctx, call(map[string]any{"log": sampleLog, "source": "ci.log"}))
	require.NoError(t, err)
	m := decode[Manifest](t, res)

	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, "ci.log", m.Source)
	assert.Equal(t, "App", m.Target)
	assert.Equal(t, "Debug", m.Configuration)
	assert.Equal(t, "failed", m.Status)
	assert.Equal(t, "BUILD", m.Mode)
	assert.Equal(t, 2, m.ActionsCompleted)
	assert.Equal(t, 2, m.FailedActions)
	assert.Equal(t, 1, m.ErrorCount)
	assert.Equal(t, 3, m.WarningCount)

	require.Len(t, m.Errors, 1)
	assert.Equal(t, "expected ';' after expression", m.Errors[0].Message)
	require.Len(t, m.Warnings, 2)
	assert.Equal(t, 2, m.Warnings[0].Occurrences)
	assert.Equal(t, []string{".../main.m:3:5", ".../main.m:9:5"}, m.Warnings[0].Locations)

	saved, err := st.GetReport(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "failed", saved.Status)
}

func TestParseBuildLog_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := srv.handleParseBuildLog(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "log parameter is required")
}

func TestParseBuildLog_NoBuild(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := srv.handleParseBuildLog(context.Background(), call(map[string]any{"log": "hello\nworld\n"}))
	require.NoError(t, err)
	m := decode[Manifest](t, res)
	assert.Equal(t, "not_started", m.Status)
	assert.Empty(t, m.Errors)
}

func TestGetBuildReport(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	_, err := srv.handleParseBuildLog(ctx, call(map[string]any{"log": sampleLog}))
	require.NoError(t, err)

	res, err := srv.handleGetBuildReport(ctx, call(map[string]any{"run_id": "run-1"}))
	require.NoError(t, err)
	r := decode[contracts.BuildReport](t, res)
	require.Len(t, r.Actions, 2)
	assert.Equal(t, "CompileC", r.Actions[0].Type)
	assert.Len(t, r.Actions[0].Diagnostics, 3)

	res, err = srv.handleGetBuildReport(ctx, call(map[string]any{"run_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "report not found")

	res, err = srv.handleGetBuildReport(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetDiagnostic(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	res, err := srv.handleParseBuildLog(ctx, call(map[string]any{"log": sampleLog}))
	require.NoError(t, err)
	m := decode[Manifest](t, res)
	fp := m.Errors[0].Fingerprint

	res, err = srv.handleGetDiagnostic(ctx, call(map[string]any{"run_id": "run-1", "fingerprint": fp}))
	require.NoError(t, err)
	g := decode[DiagnosticGroup](t, res)
	assert.Equal(t, "error", g.Severity)
	assert.Equal(t, []string{"/Users/ci/src/App/Sources/main.m:16:42"}, g.Locations)

	res, err = srv.handleGetDiagnostic(ctx, call(map[string]any{"run_id": "run-1", "fingerprint": fp, "severity": "error"}))
	require.NoError(t, err)
	assert.Equal(t, "error", decode[DiagnosticGroup](t, res).Severity)

	res, err = srv.handleGetDiagnostic(ctx, call(map[string]any{"run_id": "run-1", "fingerprint": fp, "severity": "warning"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "the error fingerprint has no warning group")

	res, err = srv.handleGetDiagnostic(ctx, call(map[string]any{"run_id": "run-1", "fingerprint": fp, "severity": "fatal"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "severity must be")

	res, err = srv.handleGetDiagnostic(ctx, call(map[string]any{"run_id": "run-1", "fingerprint": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "diagnostic not found")
}

func TestListBuildReports(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := srv.handleParseBuildLog(ctx, call(map[string]any{"log": sampleLog}))
		require.NoError(t, err)
	}

	res, err := srv.handleListBuildReports(ctx, call(map[string]any{"limit": float64(2)}))
	require.NoError(t, err)
	list := decode[[]ReportSummary](t, res)
	require.Len(t, list, 2)
	assert.Equal(t, "run-3", list[0].RunID, "newest first")
	assert.Equal(t, 1, list[0].ErrorCount)

	res, err = srv.handleListBuildReports(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.Len(t, decode[[]ReportSummary](t, res), 3)
}
