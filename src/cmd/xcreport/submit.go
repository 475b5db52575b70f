package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"xcreport/src/broker"
	"xcreport/src/contracts"
	"xcreport/src/ingest"
	"xcreport/src/logger"
	"xcreport/src/pipeline"
	"xcreport/src/report"
)

func newSubmitCmd() *cobra.Command {
	var (
		out     outputOptions
		runID   string
		wait    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit [file]",
		Short: "Submit xcodebuild output to the ingest agent",
		Long: `Splits the log into ordered chunks and publishes them on the xcreport.logs.raw
topic, keyed by run ID. An ingest agent builds the report and stores it.

With XCREPORT_BROKERS set the chunks go to Redpanda and the command returns once
they are published (use --wait to print the report). Without it an in-process
agent handles the run and the report is always printed.

Example:
  xcreport submit build.log
  xcreport submit build.log --wait --timeout 2m`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, source, err := openInput(args)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(in)
			in.Close()
			if err != nil {
				return fmt.Errorf("failed to read log: %w", err)
			}

			backend, err := pipeline.Open(ctx, appConfig, log)
			if err != nil {
				return err
			}
			defer backend.Close()

			if runID == "" {
				runID = uuid.NewString()
			}
			if backend.Mode == pipeline.LocalMode {
				wait = true
			}
			if wait && timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			rep, n, err := submitLog(ctx, backend, string(data), source, runID, wait, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Submitted run %s (%d chunks, %s mode)\n", runID, n, backend.Mode)
			if rep == nil {
				return nil
			}

			b, err := report.FromReport(*rep)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), b, *rep, out)
		},
	}

	out.register(cmd)
	cmd.Flags().StringVar(&runID, "run-id", "", "Run ID (default: random UUID)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the report and print it")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long --wait waits for the report")
	return cmd
}

// submitLog publishes content as chunks of runID. In local mode it runs an ingest
// agent for the duration of the call. With wait set it returns the run's report.
func submitLog(ctx context.Context, backend *pipeline.Backend, content, source, runID string, wait bool, lg logger.Logger) (*contracts.BuildReport, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pub := backend.Typed()

	if backend.Mode == pipeline.LocalMode {
		agent := ingest.NewAgent(pub, backend.Store, lg)
		go func() {
			if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("[CLI] Ingest agent stopped: %v", err)
			}
		}()
		if mem, ok := backend.Broker.(*broker.InMemoryBroker); ok {
			if err := waitForSubscriber(ctx, mem, contracts.TopicLogsRaw); err != nil {
				return nil, 0, err
			}
		}
	}

	var reports <-chan broker.Message
	if wait {
		var err error
		reports, err = pub.Subscribe(ctx, contracts.TopicReports, "xcreport-submit-"+runID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicReports, err)
		}
	}

	n, err := ingest.Submit(ctx, pub, runID, source, content, ingest.TargetChunkSize)
	if err != nil {
		return nil, n, err
	}
	lg.Debug("[CLI] Published %d chunks for run %s", n, runID)
	if !wait {
		return nil, n, nil
	}

	rep, err := awaitReport(ctx, pub, reports, runID)
	return rep, n, err
}

// awaitReport returns the first report of runID read from reports.
func awaitReport(ctx context.Context, pub *broker.Codec, reports <-chan broker.Message, runID string) (*contracts.BuildReport, error) {
	for {
		select {
		case msg, ok := <-reports:
			if !ok {
				return nil, fmt.Errorf("report subscription closed before run %s finished", runID)
			}
			var rep contracts.BuildReport
			if err := pub.Decode(msg, &rep); err != nil {
				continue
			}
			if rep.RunID == runID {
				return &rep, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for report %s: %w", runID, ctx.Err())
		}
	}
}

// waitForSubscriber blocks until topic has a subscriber. The in-memory broker only
// delivers to subscriptions that exist at publish time.
func waitForSubscriber(ctx context.Context, b *broker.InMemoryBroker, topic string) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for b.Subscribers(topic) == 0 {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
