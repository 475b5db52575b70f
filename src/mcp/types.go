// Package mcp exposes build log parsing and stored reports as MCP tools.
package mcp

// Manifest is the compact answer to parse_build_log. Full details stay in the store
// and are fetched with get_build_report or get_diagnostic.
type Manifest struct {
	RunID            string `json:"run_id"`
	Source           string `json:"source,omitempty"`
	Target           string `json:"target"`
	Project          string `json:"project"`
	Configuration    string `json:"configuration"`
	Status           string `json:"status"`
	Mode             string `json:"mode,omitempty"`
	ActionsCompleted int    `json:"actions_completed"`
	FailedActions    int    `json:"failed_actions"`
	ErrorCount       int    `json:"error_count"`
	WarningCount     int    `json:"warning_count"`

	// Errors lists every distinct error, most frequent first.
	Errors []DiagnosticGroup `json:"errors"`
	// Warnings lists the most frequent distinct warnings.
	Warnings []DiagnosticGroup `json:"warnings"`
	// OmittedGroups counts distinct diagnostics left out by the limits.
	OmittedGroups int `json:"omitted_groups,omitempty"`
}

// DiagnosticGroup is one distinct diagnostic and every place it was reported.
type DiagnosticGroup struct {
	Fingerprint string   `json:"fingerprint"`
	Severity    string   `json:"severity"`
	Message     string   `json:"message"`
	Occurrences int      `json:"occurrences"`
	Locations   []string `json:"locations,omitempty"`
	Actions     []string `json:"actions"`
}
