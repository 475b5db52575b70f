package report

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"xcreport/src/contracts"
)

var (
	compileArgs = []string{"normal", "x86_64", "objective-c", "com.apple.compilers.llvm.clang.1_0.compiler"}
	started     = contracts.BuildStarted{
		Target:        "ExampleProject",
		Project:       "ExampleProject",
		Configuration: "Release",
		IsDefault:     true,
	}
)

// recorder captures delegate calls in order.
type recorder struct {
	calls []string
}

func (r *recorder) BuildStarted(b *Build)  { r.calls = append(r.calls, "started "+b.Target) }
func (r *recorder) BuildFinished(b *Build) { r.calls = append(r.calls, "finished "+b.Status.String()) }
func (r *recorder) BuildActionStarted(a *BuildAction) {
	r.calls = append(r.calls, "action_started "+a.Type)
}
func (r *recorder) BuildActionFinished(a *BuildAction) {
	r.calls = append(r.calls, "action_finished "+a.Type)
}
func (r *recorder) EnvVariableDetected(name, value string) {
	r.calls = append(r.calls, "env "+name+"="+value)
}
func (r *recorder) BuildActionFailed(a *BuildAction) {
	r.calls = append(r.calls, "action_failed "+a.Type)
}

// lifecycleOnly implements the required tier and nothing else.
type lifecycleOnly struct {
	started, finished int
}

func (l *lifecycleOnly) BuildStarted(*Build)  { l.started++ }
func (l *lifecycleOnly) BuildFinished(*Build) { l.finished++ }

// envOnly adds a single optional capability.
type envOnly struct {
	lifecycleOnly
	env []string
}

func (e *envOnly) EnvVariableDetected(name, value string) {
	e.env = append(e.env, name+"="+value)
}

func TestReporter_SuccessfulBuild(t *testing.T) {
	r := NewReporter(NopDelegate{})
	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "CpResource", Arguments: []string{"ExampleProject/Base.lproj/Main.storyboard"}})
	r.Apply(contracts.BuildActionStarted{Type: "ProcessInfoPlistFile", Arguments: []string{"Info.plist"}})
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildSucceeded{Mode: "BUILD"})

	b := r.Build()
	if got := len(b.ActionsCompleted()); got != 3 {
		t.Errorf("ActionsCompleted = %d, want 3", got)
	}
	if !b.IsSuccessful() || !b.IsFinished() {
		t.Errorf("status = %s, want succeeded", b.Status)
	}
	if b.OpenAction() != nil {
		t.Error("no action should remain open after the build finished")
	}
	if b.Target != "ExampleProject" || b.Configuration != "Release" || !b.DefaultConfiguration {
		t.Errorf("unexpected build identity: %+v", b)
	}
	if b.Mode != "BUILD" {
		t.Errorf("Mode = %q, want BUILD", b.Mode)
	}
}

func TestReporter_FailedBuildWithDiagnostic(t *testing.T) {
	r := NewReporter(NopDelegate{})
	diag := contracts.DiagnosticDetected{
		Severity: contracts.SeverityError,
		File:     "main.m",
		Line:     16,
		Column:   42,
		Message:  "expected ';' after expression [1]",
	}

	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(diag)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildFailed{Mode: "BUILD"})

	b := r.Build()
	failed := b.FailedActions()
	if len(failed) != 1 {
		t.Fatalf("FailedActions = %d, want 1", len(failed))
	}
	if len(failed[0].Diagnostics) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(failed[0].Diagnostics))
	}
	want := Diagnostic{
		Kind:     DiagnosticCompiler,
		Severity: contracts.SeverityError,
		File:     "main.m",
		Line:     16,
		Char:     42,
		Message:  "expected ';' after expression [1]",
	}
	if !reflect.DeepEqual(failed[0].Diagnostics[0], want) {
		t.Errorf("diagnostic = %+v, want %+v", failed[0].Diagnostics[0], want)
	}
	if got := len(b.ActionsCompleted()); got != 2 {
		t.Errorf("ActionsCompleted = %d, want 2", got)
	}
	if !b.IsFailed() {
		t.Errorf("status = %s, want failed", b.Status)
	}
}

func TestReporter_EventsAfterFinishAreIgnored(t *testing.T) {
	for _, terminal := range []contracts.Event{contracts.BuildFailed{Mode: "BUILD"}, contracts.BuildSucceeded{Mode: "BUILD"}} {
		rec := &recorder{}
		r := NewReporter(rec)
		r.Apply(started)
		r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
		r.Apply(terminal)

		before := r.Build().Clone()
		calls := len(rec.calls)

		late := []contracts.Event{
			contracts.BuildActionStarted{Type: "Ld", Arguments: []string{"a.out"}},
			contracts.DiagnosticDetected{Severity: contracts.SeverityError, File: "a.m", Line: 1, Column: 1, Message: "late"},
			contracts.EnvVarDetected{Name: "PATH", Value: "/late/bin"},
			contracts.CommandFailed{Command: "/usr/bin/clang", ExitCode: 1},
			contracts.BuildActionStepFailed{Type: "CompileC", Arguments: compileArgs},
			contracts.BuildActionFailed{Type: "CompileC", Arguments: compileArgs},
			contracts.BuildSucceeded{Mode: "ARCHIVE"},
			contracts.BuildFailed{Mode: "ARCHIVE"},
			started,
		}
		for _, ev := range late {
			r.Apply(ev)
		}

		if !reflect.DeepEqual(before, r.Build()) {
			t.Errorf("%T: build changed after terminal status:\n before: %+v\n after:  %+v", terminal, before, r.Build())
		}
		if extra := rec.calls[calls:]; len(extra) != 0 {
			t.Errorf("%T: delegate notified after terminal status: %v", terminal, extra)
		}
	}
}

func TestNewReporter_NilDelegatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewReporter(nil) did not panic")
		}
	}()
	NewReporter(nil)
}

func TestReporter_EventsBeforeStartAreIgnored(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.EnvVarDetected{Name: "PATH", Value: "/usr/bin"})
	r.Apply(contracts.BuildSucceeded{Mode: "BUILD"})

	if r.Build().Status != StatusNotStarted {
		t.Errorf("status = %s, want not_started", r.Build().Status)
	}
	if len(r.Build().Actions) != 0 {
		t.Errorf("actions = %d, want 0", len(r.Build().Actions))
	}
	if len(rec.calls) != 0 {
		t.Errorf("delegate called before start: %v", rec.calls)
	}
}

func TestReporter_SecondBuildStartedIsIgnored(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec)
	r.Apply(started)
	r.Apply(contracts.BuildStarted{Target: "Other", Project: "Other", Configuration: "Debug"})

	if r.Build().Target != "ExampleProject" {
		t.Errorf("Target = %q, want ExampleProject", r.Build().Target)
	}
	if len(rec.calls) != 1 {
		t.Errorf("calls = %v, want a single start", rec.calls)
	}
}

func TestReporter_DiagnosticWithoutOpenActionIsDropped(t *testing.T) {
	r := NewReporter(NopDelegate{})
	r.Apply(started)
	r.Apply(contracts.DiagnosticDetected{Severity: contracts.SeverityWarning, File: "a.m", Line: 1, Column: 2, Message: "unused"})
	r.Apply(contracts.CommandFailed{Command: "/usr/bin/clang", ExitCode: 1})
	r.Apply(contracts.BuildSucceeded{Mode: "BUILD"})

	b := r.Build()
	if len(b.Actions) != 0 || b.ErrorCount() != 0 || b.WarningCount() != 0 {
		t.Errorf("orphan diagnostics should be discarded, got %+v", b)
	}
}

func TestReporter_CommandAndStepFailures(t *testing.T) {
	r := NewReporter(NopDelegate{})
	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "Ld", Arguments: []string{"build/App", "normal", "x86_64"}})
	r.Apply(contracts.CommandFailed{Command: "/usr/bin/clang", ExitCode: 1})
	r.Apply(contracts.BuildActionStepFailed{Type: "Ld", Arguments: []string{"build/App", "normal", "x86_64"}})

	a := r.Build().OpenAction()
	if a == nil {
		t.Fatal("expected an open action")
	}
	if len(a.Errors()) != 2 {
		t.Fatalf("errors = %d, want 2", len(a.Errors()))
	}
	cmd, step := a.Diagnostics[0], a.Diagnostics[1]
	if cmd.Kind != DiagnosticCommand || cmd.Command != "/usr/bin/clang" || cmd.ExitCode != 1 {
		t.Errorf("command diagnostic = %+v", cmd)
	}
	if step.Kind != DiagnosticStep || step.StepType != "Ld" || step.Message != "Ld build/App normal x86_64" {
		t.Errorf("step diagnostic = %+v", step)
	}
	if !strings.Contains(cmd.String(), "exit code 1") {
		t.Errorf("command diagnostic String() = %q", cmd.String())
	}
}

func TestReporter_BuildActionFailed(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec)
	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildActionStarted{Type: "Ld", Arguments: []string{"a.out"}})
	r.Apply(contracts.BuildActionFailed{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildActionFailed{Type: "CompileC", Arguments: []string{"other"}})

	b := r.Build()
	if !b.Actions[0].FailureReported {
		t.Error("matching action should be flagged")
	}
	if b.Actions[1].FailureReported {
		t.Error("non-matching action should not be flagged")
	}
	if len(b.FailedActions()) != 0 {
		t.Errorf("FailedActions = %d, want 0", len(b.FailedActions()))
	}
	if b.OpenAction() != b.Actions[1] {
		t.Error("BuildActionFailed must not close the open action")
	}
	if last := rec.calls[len(rec.calls)-1]; last != "action_failed CompileC" {
		t.Errorf("last call = %q, want action_failed CompileC", last)
	}
}

func TestReporter_DelegateOrder(t *testing.T) {
	rec := &recorder{}
	r := NewReporter(rec)
	r.Apply(started)
	r.Apply(contracts.EnvVarDetected{Name: "ARCHS", Value: "x86_64"})
	r.Apply(contracts.BuildActionStarted{Type: "CpResource", Arguments: []string{"a"}})
	r.Apply(contracts.DiagnosticDetected{Severity: contracts.SeverityError, File: "a", Line: 1, Column: 1, Message: "x"})
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildFailed{Mode: "BUILD"})

	want := []string{
		"started ExampleProject",
		"env ARCHS=x86_64",
		"action_started CpResource",
		"action_finished CpResource",
		"action_started CompileC",
		"action_finished CompileC",
		"finished failed",
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls:\n got:  %v\n want: %v", rec.calls, want)
	}
}

func TestReporter_PartialDelegate(t *testing.T) {
	d := &envOnly{}
	r := NewReporter(d)
	r.Apply(started)
	r.Apply(contracts.EnvVarDetected{Name: "SDKROOT", Value: "/sdk"})
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildActionFailed{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildSucceeded{Mode: "ARCHIVE"})

	if d.started != 1 || d.finished != 1 {
		t.Errorf("started=%d finished=%d, want 1 and 1", d.started, d.finished)
	}
	if !reflect.DeepEqual(d.env, []string{"SDKROOT=/sdk"}) {
		t.Errorf("env = %v", d.env)
	}
	if r.Build().Mode != "ARCHIVE" {
		t.Errorf("Mode = %q, want ARCHIVE", r.Build().Mode)
	}
}

func TestAdapt(t *testing.T) {
	if _, ok := Adapt(nil).(NopDelegate); !ok {
		t.Error("Adapt(nil) should return NopDelegate")
	}

	rec := &recorder{}
	if Adapt(rec) != FullDelegate(rec) {
		t.Error("a full delegate should be returned unwrapped")
	}

	l := &lifecycleOnly{}
	full := Adapt(l)
	full.BuildActionStarted(&BuildAction{})
	full.BuildActionFinished(&BuildAction{})
	full.EnvVariableDetected("A", "B")
	full.BuildActionFailed(&BuildAction{})
	full.BuildStarted(&Build{})
	if l.started != 1 {
		t.Errorf("required method not forwarded: started=%d", l.started)
	}
}

func TestReporter_Idempotent(t *testing.T) {
	events := []contracts.Event{
		started,
		contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs},
		contracts.DiagnosticDetected{Severity: contracts.SeverityWarning, File: "main.m", Line: 3, Column: 9, Message: "unused variable 'x'"},
		contracts.BuildActionStarted{Type: "Ld", Arguments: []string{"build/App"}},
		contracts.CommandFailed{Command: "/usr/bin/ld", ExitCode: 1},
		contracts.BuildFailed{Mode: "BUILD"},
	}

	run := func() *Build {
		r := NewReporter(NopDelegate{})
		for _, ev := range events {
			r.Apply(ev)
		}
		return r.Build().Clone()
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("replaying the same events produced different builds:\n %+v\n %+v", a, b)
	}
	if a.ErrorCount() != 1 || a.WarningCount() != 1 {
		t.Errorf("errors=%d warnings=%d, want 1 and 1", a.ErrorCount(), a.WarningCount())
	}
	if len(a.FailedActions()) != 2 {
		t.Errorf("FailedActions = %d, want 2 (warnings count)", len(a.FailedActions()))
	}
}

func TestBuild_CloneIsDeep(t *testing.T) {
	r := NewReporter(NopDelegate{})
	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.BuildActionStepFailed{Type: "CompileC", Arguments: []string{"main.m"}})

	c := r.Build().Clone()
	c.Actions[0].Arguments[0] = "mutated"
	c.Actions[0].Diagnostics[0].StepArguments[0] = "mutated"
	c.Actions[0].Open = false

	orig := r.Build().Actions[0]
	if orig.Arguments[0] != "normal" || orig.Diagnostics[0].StepArguments[0] != "main.m" || !orig.Open {
		t.Errorf("clone shares memory with the original: %+v", orig)
	}
}

func TestBuild_Report(t *testing.T) {
	r := NewReporter(NopDelegate{})
	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.DiagnosticDetected{Severity: contracts.SeverityError, File: "/src/main.m", Line: 16, Column: 42, Message: "expected ';' after expression"})
	r.Apply(contracts.BuildFailed{Mode: "BUILD"})

	rep := r.Build().Report("run-1", "build.log")
	if rep.RunID != "run-1" || rep.Source != "build.log" {
		t.Errorf("identity = %q/%q", rep.RunID, rep.Source)
	}
	if rep.Status != "failed" || rep.FinishedAt == "" {
		t.Errorf("status = %q finished_at = %q", rep.Status, rep.FinishedAt)
	}
	if rep.FailedActions != 1 || rep.ActionsCompleted != 1 || rep.ErrorCount != 1 {
		t.Errorf("counts = %+v", rep)
	}
	if len(rep.Actions) != 1 || len(rep.Actions[0].Diagnostics) != 1 {
		t.Fatalf("actions = %+v", rep.Actions)
	}
	d := rep.Actions[0].Diagnostics[0]
	if d.Kind != "compiler" || d.Line != 16 || d.Char != 42 || len(d.Fingerprint) != 16 {
		t.Errorf("diagnostic report = %+v", d)
	}
}

func TestStatus_Text(t *testing.T) {
	for _, s := range []Status{StatusNotStarted, StatusRunning, StatusSucceeded, StatusFailed} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", s, err)
		}
		var back Status
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if back != s {
			t.Errorf("round trip %v -> %q -> %v", s, text, back)
		}
	}

	var s Status
	if err := s.UnmarshalText([]byte("exploded")); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestFromReport(t *testing.T) {
	finished := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	r := NewReporter(NopDelegate{}, WithClock(func() time.Time { return finished }))
	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})
	r.Apply(contracts.DiagnosticDetected{Severity: contracts.SeverityWarning, File: "/src/main.m", Line: 3, Column: 1, Message: "unused variable"})
	r.Apply(contracts.BuildActionStepFailed{Type: "Ld", Arguments: []string{"app", "normal"}})
	r.Apply(contracts.BuildFailed{Mode: "ARCHIVE"})

	rebuilt, err := FromReport(r.Build().Report("run-1", ""))
	if err != nil {
		t.Fatalf("FromReport() error: %v", err)
	}
	if !reflect.DeepEqual(rebuilt, r.Build()) {
		t.Errorf("FromReport() = %+v, want %+v", rebuilt, r.Build())
	}

	if _, err := FromReport(contracts.BuildReport{Status: "exploded"}); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := FromReport(contracts.BuildReport{Status: "failed", FinishedAt: "yesterday"}); err == nil {
		t.Error("expected error for malformed finished_at")
	}
}

func TestBuild_ReportIsDeterministic(t *testing.T) {
	ticks := 0
	clock := func() time.Time {
		ticks++
		return time.Date(2026, 3, 14, 9, 26, ticks, 0, time.FixedZone("CET", 3600))
	}
	r := NewReporter(NopDelegate{}, WithClock(clock))
	r.Apply(started)
	r.Apply(contracts.BuildActionStarted{Type: "CompileC", Arguments: compileArgs})

	if rep := r.Build().Report("run-1", ""); rep.FinishedAt != "" {
		t.Errorf("running build has finished_at %q", rep.FinishedAt)
	}

	r.Apply(contracts.BuildSucceeded{Mode: "BUILD"})
	first := r.Build().Report("run-1", "build.log")
	second := r.Build().Report("run-1", "build.log")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("exports differ:\n first:  %+v\n second: %+v", first, second)
	}
	if first.FinishedAt != "2026-03-14T08:26:01Z" {
		t.Errorf("FinishedAt = %q, want the finish event time in UTC", first.FinishedAt)
	}
	if ticks != 1 {
		t.Errorf("clock read %d times, want once at finish", ticks)
	}
}
