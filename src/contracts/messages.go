package contracts

// LogChunk is an ordered slice of raw xcodebuild console lines for one run.
// Published to: xcreport.logs.raw
// Key: {run_id}
type LogChunk struct {
	RunID string `json:"run_id"`
	// Seq starts at 0 and increases by one per chunk of the same run.
	Seq int `json:"seq"`
	// LineStart is the 1-based line number of Lines[0] in the whole log.
	LineStart int `json:"line_start"`
	// Lines are delivered verbatim, blank lines included.
	Lines []string `json:"lines"`
	// Final marks the last chunk of the run.
	Final bool `json:"final"`
	// Source describes where the log came from (file path, "stdin", CI job name).
	Source string `json:"source,omitempty"`
}

// BuildReport is the serializable summary of a Build.
// Published to: xcreport.reports
// Key: {run_id}
type BuildReport struct {
	RunID                string         `json:"run_id"`
	Source               string         `json:"source,omitempty"`
	Target               string         `json:"target"`
	Project              string         `json:"project"`
	Configuration        string         `json:"configuration"`
	DefaultConfiguration bool           `json:"default_configuration"`
	Mode                 string         `json:"mode,omitempty"`
	Status               string         `json:"status"`
	Actions              []ActionReport `json:"actions"`
	ActionsCompleted     int            `json:"actions_completed"`
	FailedActions        int            `json:"failed_actions"`
	ErrorCount           int            `json:"error_count"`
	WarningCount         int            `json:"warning_count"`
	// FinishedAt is RFC3339, empty while the build is still running.
	FinishedAt string `json:"finished_at,omitempty"`
}

// ActionReport summarizes one build action.
type ActionReport struct {
	Type            string             `json:"type"`
	Arguments       []string           `json:"arguments"`
	Open            bool               `json:"open"`
	FailureReported bool               `json:"failure_reported,omitempty"`
	Diagnostics     []DiagnosticReport `json:"diagnostics,omitempty"`
}

// DiagnosticReport summarizes one diagnostic attached to an action.
type DiagnosticReport struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	File     string `json:"file,omitempty"`
	Line     uint   `json:"line,omitempty"`
	Char     uint   `json:"char,omitempty"`
	Message  string `json:"message"`
	Command  string `json:"command,omitempty"`
	ExitCode uint   `json:"exit_code,omitempty"`
	// Fingerprint groups the same diagnostic across builds (paths and numbers masked).
	Fingerprint string `json:"fingerprint"`
}

// Notification mirrors one reporter delegate callback.
// Published to: xcreport.notifications
// Key: {run_id}
type Notification struct {
	RunID  string `json:"run_id"`
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
	Status string `json:"status,omitempty"`
	// Action is "Type arg1 arg2..." for action notifications.
	Action string `json:"action,omitempty"`
	// Name and Value are set for environment variable notifications.
	Name      string `json:"name,omitempty"`
	Value     string `json:"value,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Notification kinds, one per delegate callback.
const (
	NotifyBuildStarted        = "build_started"
	NotifyBuildFinished       = "build_finished"
	NotifyBuildActionStarted  = "build_action_started"
	NotifyBuildActionFinished = "build_action_finished"
	NotifyBuildActionFailed   = "build_action_failed"
	NotifyEnvVariable         = "env_variable_detected"
)

// Topic names used on the broker.
const (
	// TopicLogsRaw contains raw console lines in ordered chunks.
	TopicLogsRaw = "xcreport.logs.raw"

	// TopicEvents contains translated events, one envelope per message.
	TopicEvents = "xcreport.events"

	// TopicReports contains the final BuildReport of each run.
	TopicReports = "xcreport.reports"

	// TopicNotifications contains reporter lifecycle notifications.
	TopicNotifications = "xcreport.notifications"
)
