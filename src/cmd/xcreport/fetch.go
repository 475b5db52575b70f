package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"xcreport/src/config"
	"xcreport/src/logger"
	"xcreport/src/notify"
	"xcreport/src/pipeline"
	"xcreport/src/provider"
	"xcreport/src/report"
	"xcreport/src/store"

	// Registered CI providers.
	_ "xcreport/src/buildkite"
	_ "xcreport/src/githubactions"
)

type fetchOptions struct {
	out         outputOptions
	allJobs     bool
	jobFilter   string
	concurrency int
}

func newFetchCmd() *cobra.Command {
	var (
		opts     fetchOptions
		useStore bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <build-url>",
		Short: "Download CI job logs and report on the xcodebuild output in each",
		Long: `Fetches the jobs of a Buildkite build or GitHub Actions run and parses each
job log as xcodebuild output. Only failed jobs are fetched unless --all-jobs is set.

Tokens are read from BUILDKITE_API_TOKEN and GITHUB_TOKEN.

Example:
  xcreport fetch https://buildkite.com/acme/ios-app/builds/4091
  xcreport fetch https://github.com/acme/ios-app/actions/runs/123 --job "Build iOS" --store`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ref, err := provider.ParseURL(args[0])
			if err != nil {
				return provider.WrapError(err)
			}
			p, err := provider.GetProvider(ref, tokenFor(appConfig, ref.Provider))
			if err != nil {
				return err
			}

			var st store.Store
			if useStore {
				backend, err := pipeline.Open(ctx, appConfig, log)
				if err != nil {
					return err
				}
				defer backend.Close()
				st = backend.Store
			}

			opts.out.noColor = opts.out.noColor || appConfig.NoColor
			return runFetch(ctx, cmd.OutOrStdout(), p, ref, st, opts, log)
		},
	}

	opts.out.register(cmd)
	cmd.Flags().BoolVar(&opts.allJobs, "all-jobs", false, "Fetch every job, not only failed ones")
	cmd.Flags().StringVar(&opts.jobFilter, "job", "", "Only fetch jobs whose name contains this text")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", provider.DefaultFetchConcurrency, "Parallel log downloads")
	cmd.Flags().BoolVar(&useStore, "store", false, "Save each job report to the configured store")
	return cmd
}

func tokenFor(cfg *config.Config, providerName string) string {
	switch providerName {
	case "buildkite":
		return cfg.BuildkiteToken
	case "github":
		return cfg.GitHubToken
	}
	return ""
}

// runFetch downloads the selected job logs and writes one report per job. Only
// finished builds are stored.
func runFetch(ctx context.Context, w io.Writer, p provider.Provider, ref *provider.BuildRef, st store.Store, opts fetchOptions, lg logger.Logger) error {
	build, err := p.FetchBuild(ctx, ref)
	if err != nil {
		return provider.WrapError(err)
	}

	jobs := provider.SelectJobs(build.Jobs, !opts.allJobs, opts.jobFilter)
	lg.Info("[Fetch] %s %s %s: %d of %d jobs selected", p.Name(), build.Describe(), build.State, len(jobs), len(build.Jobs))
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No matching jobs")
		return err
	}

	logs, err := provider.FetchLogs(ctx, p, ref, jobs, opts.concurrency)
	if err != nil {
		return provider.WrapError(err)
	}

	heading := color.New(color.Bold, color.Underline)
	if opts.out.noColor {
		heading.DisableColor()
	}

	if !opts.out.json {
		fmt.Fprintf(w, "%s %s %s\n\n", p.Name(), build.Describe(), build.State)
	}

	var failed bool
	for i, jl := range logs {
		runID := uuid.NewString()
		source := p.Name() + ":" + jl.Job.Name

		var extra []report.Delegate
		var saver *notify.StoreDelegate
		if st != nil {
			saver = notify.NewStoreDelegate(ctx, st, runID, source, lg)
			extra = append(extra, saver)
		}

		b, err := runParse(ctx, strings.NewReader(jl.Content), lg, runID, extra...)
		if err != nil {
			return fmt.Errorf("job %q: %w", jl.Job.Name, err)
		}
		if saver != nil && b.IsFinished() {
			if err := saver.Err(); err != nil {
				return err
			}
			lg.Info("[Fetch] Saved report %s for %s", runID, source)
		}

		if !opts.out.json {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s (%s)\n", heading.Sprint(jl.Job.Name), jl.Job.State)
		}
		// Exit code is decided once every job is printed.
		out := opts.out
		out.exitCode = false
		if err := writeResult(w, b, b.Report(runID, source), out); err != nil {
			return err
		}
		failed = failed || b.IsFailed()
	}

	if opts.out.exitCode && failed {
		return errBuildFailed
	}
	return nil
}
