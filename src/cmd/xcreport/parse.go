package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"xcreport/src/config"
	"xcreport/src/contracts"
	"xcreport/src/logger"
	"xcreport/src/notify"
	"xcreport/src/pipeline"
	"xcreport/src/render"
	"xcreport/src/report"
	"xcreport/src/tui"
)

// errBuildFailed makes the process exit with status 2 when --exit-code is set.
var errBuildFailed = errors.New("build failed")

// outputOptions controls how a finished report is printed.
type outputOptions struct {
	json           bool
	noColor        bool
	allActions     bool
	maxDiagnostics int
	exitCode       bool
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&o.noColor, "no-color", false, "Disable colors")
	cmd.Flags().BoolVar(&o.allActions, "all", false, "List successful actions too")
	cmd.Flags().IntVar(&o.maxDiagnostics, "max-diagnostics", 0, "Max diagnostics listed per action (0 = all)")
	cmd.Flags().BoolVar(&o.exitCode, "exit-code", false, "Exit with status 2 when the build failed")
}

func newParseCmd() *cobra.Command {
	var (
		out      outputOptions
		useTUI   bool
		useStore bool
		runID    string
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse xcodebuild output and print a build report",
		Long: `Reads xcodebuild console output from a file, or from stdin when no file (or "-")
is given, and prints a summary of the build.

Example:
  xcodebuild -scheme App build | xcreport parse
  xcreport parse build.log --json
  xcreport parse build.log --tui --store`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, source, err := openInput(args)
			if err != nil {
				return err
			}
			defer in.Close()

			if runID == "" {
				runID = uuid.NewString()
			}
			out.noColor = out.noColor || appConfig.NoColor

			var extra []report.Delegate
			var saver *notify.StoreDelegate
			if useStore {
				backend, err := pipeline.Open(ctx, appConfig, log)
				if err != nil {
					return err
				}
				defer backend.Close()
				saver = notify.NewStoreDelegate(ctx, backend.Store, runID, source, log)
				extra = append(extra, saver)
			}

			var build *report.Build
			if useTUI {
				build, err = runTUI(ctx, in, extra...)
			} else {
				build, err = runParse(ctx, in, log, runID, extra...)
			}
			if err != nil {
				return err
			}
			if saver != nil {
				if err := saver.Err(); err != nil {
					return err
				}
				log.Info("[CLI] Saved report %s", runID)
			}
			if build == nil {
				return nil
			}
			return writeResult(cmd.OutOrStdout(), build, build.Report(runID, source), out)
		},
	}

	out.register(cmd)
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Show a live view while parsing")
	cmd.Flags().BoolVar(&useStore, "store", false, "Save the report to the configured store")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run ID of the report (default: random UUID)")
	return cmd
}

// openInput opens the log named by args, or stdin.
func openInput(args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), "stdin", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", &config.UserError{
			Message: fmt.Sprintf("Cannot read log file %q", args[0]),
			Hint:    "Pass a file written by xcodebuild, or pipe its output to 'xcreport parse'",
			Err:     err,
		}
	}
	return f, args[0], nil
}

// runParse feeds in to a new session and returns the resulting build.
func runParse(ctx context.Context, in io.Reader, lg logger.Logger, runID string, extra ...report.Delegate) (*report.Build, error) {
	delegates := append([]report.Delegate{notify.NewLogDelegate(lg, runID)}, extra...)
	session := pipeline.NewSession(notify.Multi(delegates...), pipeline.WithLogger(lg))
	if err := session.Run(ctx, in); err != nil {
		return nil, err
	}
	lg.Debug("[CLI] Parsed %d lines, %d events", session.Lines(), session.Events())
	return session.Build(), nil
}

// runTUI parses in behind the live view. It returns the build once the user quits,
// or nil when they quit before the whole log was read.
func runTUI(ctx context.Context, in io.Reader, extra ...report.Delegate) (*report.Build, error) {
	p := tea.NewProgram(tui.NewLiveModel(), tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan *report.Build, 1)
	go func() {
		delegates := append([]report.Delegate{tui.NewProgramDelegate(p)}, extra...)
		session := pipeline.NewSession(notify.Multi(delegates...))
		err := session.Run(ctx, in)
		done <- session.Build()
		p.Send(tui.LogDoneMsg{Lines: session.Lines(), Err: err})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("live view failed: %w", err)
	}

	select {
	case b := <-done:
		return b, nil
	default:
		return nil, nil
	}
}

// writeResult prints the build as a summary or as JSON.
func writeResult(w io.Writer, b *report.Build, rep contracts.BuildReport, opts outputOptions) error {
	var err error
	if opts.json {
		err = render.JSON(w, rep)
	} else {
		err = render.Summary(w, b, render.Options{
			NoColor:        opts.noColor,
			AllActions:     opts.allActions,
			MaxDiagnostics: opts.maxDiagnostics,
		})
	}
	if err != nil {
		return err
	}
	if opts.exitCode && b.IsFailed() {
		return errBuildFailed
	}
	return nil
}
