package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"xcreport/src/contracts"
	"xcreport/src/logger"
	"xcreport/src/notify"
	"xcreport/src/pipeline"
	"xcreport/src/store"
)

// DefaultListLimit is the number of reports list_build_reports returns by default.
const DefaultListLimit = 20

// Server is the MCP server for xcreport.
type Server struct {
	mcpServer *server.MCPServer
	store     store.Store
	logger    logger.Logger
	newRunID  func() string
}

// NewServer creates an MCP server keeping reports in st.
func NewServer(st store.Store, log logger.Logger) *Server {
	s := server.NewMCPServer(
		"xcreport",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		store:     st,
		logger:    log,
		newRunID:  uuid.NewString,
	}
	srv.registerTools()

	return srv
}

// ReportSummary is one entry of list_build_reports.
type ReportSummary struct {
	RunID        string `json:"run_id"`
	Source       string `json:"source,omitempty"`
	Target       string `json:"target"`
	Status       string `json:"status"`
	ErrorCount   int    `json:"error_count"`
	WarningCount int    `json:"warning_count"`
	FinishedAt   string `json:"finished_at,omitempty"`
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	parseTool := mcp.NewTool("parse_build_log",
		mcp.WithDescription("Parse xcodebuild console output and return a compact manifest: build status, counts, and distinct errors and warnings grouped by fingerprint. The full report is stored under the returned run_id; use get_build_report or get_diagnostic to drill in."),
		mcp.WithString("log",
			mcp.Required(),
			mcp.Description("Raw xcodebuild console output"),
		),
		mcp.WithString("source",
			mcp.Description("Where the log came from (file name, CI job)"),
		),
		mcp.WithNumber("error_limit",
			mcp.Description(fmt.Sprintf("Max distinct errors (default: %d)", DefaultErrorLimit)),
		),
		mcp.WithNumber("warning_limit",
			mcp.Description(fmt.Sprintf("Max distinct warnings (default: %d)", DefaultWarningLimit)),
		),
	)

	reportTool := mcp.NewTool("get_build_report",
		mcp.WithDescription("Get the full stored report of a run: every action with its diagnostics."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID from parse_build_log or list_build_reports"),
		),
	)

	diagnosticTool := mcp.NewTool("get_diagnostic",
		mcp.WithDescription("Get one distinct diagnostic of a run with every location and action it was reported in."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID from parse_build_log"),
		),
		mcp.WithString("fingerprint",
			mcp.Required(),
			mcp.Description("Fingerprint from the manifest"),
		),
		mcp.WithString("severity",
			mcp.Description("error or warning; needed when a fingerprint is listed under both (default: error first)"),
			mcp.Enum(string(contracts.SeverityError), string(contracts.SeverityWarning)),
		),
	)

	listTool := mcp.NewTool("list_build_reports",
		mcp.WithDescription("List stored build reports, newest first."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max reports (default: %d)", DefaultListLimit)),
		),
	)

	s.mcpServer.AddTool(parseTool, s.handleParseBuildLog)
	s.mcpServer.AddTool(reportTool, s.handleGetBuildReport)
	s.mcpServer.AddTool(diagnosticTool, s.handleGetDiagnostic)
	s.mcpServer.AddTool(listTool, s.handleListBuildReports)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleParseBuildLog runs a session over the log, stores the report and returns
// its manifest.
func (s *Server) handleParseBuildLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := request.GetString("log", "")
	if text == "" {
		return mcp.NewToolResultError("log parameter is required"), nil
	}
	source := request.GetString("source", "mcp")
	errorLimit := request.GetInt("error_limit", DefaultErrorLimit)
	warningLimit := request.GetInt("warning_limit", DefaultWarningLimit)

	runID := s.newRunID()
	session := pipeline.NewSession(notify.NewLogDelegate(s.logger, runID), pipeline.WithLogger(s.logger))
	if err := session.Run(ctx, strings.NewReader(text)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
	}

	report := session.Build().Report(runID, source)
	if err := s.store.SaveReport(ctx, report); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save report: %v", err)), nil
	}
	s.logger.Info("[MCP] Parsed %d lines into run %s (%s)", session.Lines(), runID, report.Status)

	return jsonResult(ToManifest(report, errorLimit, warningLimit))
}

// handleGetBuildReport returns the full stored report.
func (s *Server) handleGetBuildReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := request.GetString("run_id", "")
	if runID == "" {
		return mcp.NewToolResultError("run_id parameter is required"), nil
	}

	report, errResult := s.lookup(ctx, runID)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(report)
}

// handleGetDiagnostic returns one diagnostic group with all its locations.
func (s *Server) handleGetDiagnostic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID := request.GetString("run_id", "")
	if runID == "" {
		return mcp.NewToolResultError("run_id parameter is required"), nil
	}
	fingerprint := request.GetString("fingerprint", "")
	if fingerprint == "" {
		return mcp.NewToolResultError("fingerprint parameter is required"), nil
	}

	severity := request.GetString("severity", "")
	switch contracts.Severity(severity) {
	case "", contracts.SeverityError, contracts.SeverityWarning:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("severity must be %q or %q, got %q", contracts.SeverityError, contracts.SeverityWarning, severity)), nil
	}

	report, errResult := s.lookup(ctx, runID)
	if errResult != nil {
		return errResult, nil
	}
	group, ok := FindDiagnostic(*report, severity, fingerprint)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("diagnostic not found: run_id=%s, severity=%s, fingerprint=%s", runID, severity, fingerprint)), nil
	}
	return jsonResult(group)
}

// handleListBuildReports returns report summaries, newest first.
func (s *Server) handleListBuildReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", DefaultListLimit)

	reports, err := s.store.ListReports(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reports: %v", err)), nil
	}

	summaries := make([]ReportSummary, 0, len(reports))
	for _, r := range reports {
		summaries = append(summaries, summarize(r))
	}
	return jsonResult(summaries)
}

func (s *Server) lookup(ctx context.Context, runID string) (*contracts.BuildReport, *mcp.CallToolResult) {
	report, err := s.store.GetReport(ctx, runID)
	if err != nil {
		var nf store.ErrNotFound
		if errors.As(err, &nf) {
			return nil, mcp.NewToolResultError(fmt.Sprintf("report not found: run_id=%s", runID))
		}
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to load report: %v", err))
	}
	return report, nil
}

func summarize(r contracts.BuildReport) ReportSummary {
	return ReportSummary{
		RunID:        r.RunID,
		Source:       r.Source,
		Target:       r.Target,
		Status:       r.Status,
		ErrorCount:   r.ErrorCount,
		WarningCount: r.WarningCount,
		FinishedAt:   r.FinishedAt,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
