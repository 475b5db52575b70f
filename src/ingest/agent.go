// Package ingest moves raw xcodebuild logs through the broker: the CLI side chunks and
// publishes them, the Agent reassembles each run and reports it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xcreport/src/broker"
	"xcreport/src/contracts"
	"xcreport/src/logger"
	"xcreport/src/metrics"
	"xcreport/src/notify"
	"xcreport/src/pipeline"
	"xcreport/src/report"
	"xcreport/src/store"
)

// DefaultGroupID is the consumer group of the ingest agent.
const DefaultGroupID = "xcreport-ingest"

// DefaultRunTTL is how long a run may go without a chunk before it is discarded.
const DefaultRunTTL = 30 * time.Minute

// DefaultMaxPending caps the out-of-order chunks buffered for one run.
const DefaultMaxPending = 64

// recentRunLimit bounds how many finished run IDs are remembered for duplicate detection.
const recentRunLimit = 1024

// run is the reassembly state of one RunID.
type run struct {
	session  *pipeline.Session
	source   string
	next     int
	pending  map[int]contracts.LogChunk
	started  time.Time
	lastSeen time.Time
}

// Agent consumes log chunks, feeds each run through its own Session in Seq order and,
// on the final chunk, publishes and stores the run's BuildReport.
type Agent struct {
	broker     *broker.Codec
	store      store.Store
	logger     logger.Logger
	recorder   metrics.Recorder
	groupID    string
	notify     bool
	events     bool
	runTTL     time.Duration
	maxPending int
	now        func() time.Time

	runs        map[string]*run
	recent      map[string]struct{}
	recentOrder []string
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithRecorder records chunk, run and session metrics on r.
func WithRecorder(r metrics.Recorder) AgentOption {
	return func(a *Agent) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithGroupID overrides the consumer group.
func WithGroupID(groupID string) AgentOption {
	return func(a *Agent) {
		if groupID != "" {
			a.groupID = groupID
		}
	}
}

// WithNotifications publishes reporter notifications of every run to
// contracts.TopicNotifications.
func WithNotifications() AgentOption {
	return func(a *Agent) {
		a.notify = true
	}
}

// WithRunTTL discards runs that received no chunk for longer than ttl.
// A ttl <= 0 keeps the default.
func WithRunTTL(ttl time.Duration) AgentOption {
	return func(a *Agent) {
		if ttl > 0 {
			a.runTTL = ttl
		}
	}
}

// WithMaxPending caps the out-of-order chunks buffered per run. A run that exceeds it
// is discarded. n <= 0 keeps the default.
func WithMaxPending(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxPending = n
		}
	}
}

// WithEventStream publishes every translated event to contracts.TopicEvents as an
// EventEnvelope keyed by RunID.
func WithEventStream() AgentOption {
	return func(a *Agent) {
		a.events = true
	}
}

// NewAgent creates a new ingest agent.
func NewAgent(pub *broker.Codec, st store.Store, log logger.Logger, opts ...AgentOption) *Agent {
	a := &Agent{
		broker:     pub,
		store:      st,
		logger:     log,
		recorder:   metrics.NoopRecorder{},
		groupID:    DefaultGroupID,
		runTTL:     DefaultRunTTL,
		maxPending: DefaultMaxPending,
		now:        time.Now,
		runs:       make(map[string]*run),
		recent:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the agent's main loop. It returns when ctx is done or the subscription
// channel closes; runs still missing their final chunk are discarded.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("[IngestAgent] Starting...")

	msgChan, err := a.broker.Subscribe(ctx, contracts.TopicLogsRaw, a.groupID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicLogsRaw, err)
	}

	a.logger.Info("[IngestAgent] Listening for log chunks on '%s' topic...", contracts.TopicLogsRaw)

	// Idle runs are also swept while no chunks arrive.
	sweep := time.NewTicker(a.runTTL / 2)
	defer sweep.Stop()

	for {
		select {
		case <-sweep.C:
			a.evictIdleRuns()

		case msg, ok := <-msgChan:
			if !ok {
				a.logger.Info("[IngestAgent] Message channel closed, shutting down")
				a.discardOpenRuns()
				return nil
			}

			if err := a.processChunk(ctx, msg); err != nil {
				a.logger.Error("[IngestAgent] Error processing chunk: %v", err)
			}

		case <-ctx.Done():
			a.logger.Info("[IngestAgent] Context cancelled, shutting down")
			a.discardOpenRuns()
			return ctx.Err()
		}
	}
}

// processChunk decodes one message and applies every chunk that is now in order.
func (a *Agent) processChunk(ctx context.Context, msg broker.Message) error {
	var chunk contracts.LogChunk
	if err := a.broker.Decode(msg, &chunk); err != nil {
		a.recorder.IncChunk(metrics.ChunkInvalid)
		return err
	}
	if chunk.RunID == "" || chunk.Seq < 0 {
		a.recorder.IncChunk(metrics.ChunkInvalid)
		return fmt.Errorf("invalid chunk at %s offset %d: run %q seq %d", msg.Topic, msg.Offset, chunk.RunID, chunk.Seq)
	}

	a.evictIdleRuns()

	if _, done := a.recent[chunk.RunID]; done {
		a.recorder.IncChunk(metrics.ChunkDuplicate)
		a.logger.Debug("[IngestAgent] Ignoring chunk %d of finished or discarded run %s", chunk.Seq, chunk.RunID)
		return nil
	}

	r := a.runs[chunk.RunID]
	if r == nil {
		r = a.startRun(ctx, chunk)
	}
	r.lastSeen = a.now()

	if _, buffered := r.pending[chunk.Seq]; chunk.Seq < r.next || buffered {
		a.recorder.IncChunk(metrics.ChunkDuplicate)
		a.logger.Debug("[IngestAgent] Duplicate chunk %d of run %s", chunk.Seq, chunk.RunID)
		return nil
	}
	if chunk.Seq > r.next {
		if len(r.pending) >= a.maxPending {
			a.discardRun(chunk.RunID, r, "too many buffered chunks")
			a.recorder.IncChunk(metrics.ChunkDropped)
			return fmt.Errorf("run %s: more than %d chunks buffered while waiting for %d", chunk.RunID, a.maxPending, r.next)
		}
		r.pending[chunk.Seq] = chunk
		a.recorder.IncChunk(metrics.ChunkBuffered)
		a.logger.Debug("[IngestAgent] Buffered chunk %d of run %s (waiting for %d)", chunk.Seq, chunk.RunID, r.next)
		return nil
	}

	for {
		r.session.FeedLines(chunk.Lines)
		r.next++
		a.recorder.IncChunk(metrics.ChunkApplied)
		a.logger.Debug("[IngestAgent] Applied %s", FormatChunkInfo(chunk))

		if chunk.Final {
			return a.finishRun(ctx, chunk.RunID, r)
		}

		next, ok := r.pending[r.next]
		if !ok {
			return nil
		}
		delete(r.pending, r.next)
		chunk = next
	}
}

func (a *Agent) startRun(ctx context.Context, chunk contracts.LogChunk) *run {
	delegates := []report.Delegate{
		notify.NewLogDelegate(a.logger, chunk.RunID),
		notify.NewMetricsDelegate(a.recorder),
	}
	if a.notify {
		delegates = append(delegates, notify.NewPublishDelegate(ctx, a.broker, chunk.RunID, a.logger))
	}

	opts := []pipeline.Option{
		pipeline.WithRecorder(a.recorder),
		pipeline.WithLogger(a.logger),
	}
	if a.events {
		opts = append(opts, pipeline.WithEventHook(a.eventPublisher(ctx, chunk.RunID)))
	}

	r := &run{
		session:  pipeline.NewSession(notify.Multi(delegates...), opts...),
		source:   chunk.Source,
		pending:  make(map[int]contracts.LogChunk),
		started:  a.now(),
		lastSeen: a.now(),
	}
	a.runs[chunk.RunID] = r
	a.recorder.SetActiveRuns(len(a.runs))
	a.logger.Info("[IngestAgent] Started run %s (%s)", chunk.RunID, chunk.Source)
	return r
}

// eventPublisher numbers the events of one run from 1 and publishes them.
func (a *Agent) eventPublisher(ctx context.Context, runID string) func(contracts.Event) {
	seq := 0
	return func(ev contracts.Event) {
		seq++
		if err := a.broker.Publish(ctx, contracts.TopicEvents, runID, contracts.Wrap(runID, seq, ev)); err != nil {
			a.logger.Error("[IngestAgent] Failed to publish event %d of run %s: %v", seq, runID, err)
		}
	}
}

// finishRun saves and publishes the report of a run whose final chunk was applied.
func (a *Agent) finishRun(ctx context.Context, runID string, r *run) error {
	delete(a.runs, runID)
	a.remember(runID)
	a.recorder.SetActiveRuns(len(a.runs))
	a.recorder.ObserveRunDuration(a.now().Sub(r.started))

	rep := r.session.Build().Report(runID, r.source)
	a.logger.Info("[IngestAgent] Run %s finished: %s, %d lines, %d failed actions",
		runID, rep.Status, r.session.Lines(), rep.FailedActions)

	// Saved before it is announced, so readers of the topic can fetch it.
	var errs []error
	if err := a.store.SaveReport(ctx, rep); err != nil {
		errs = append(errs, fmt.Errorf("save report %s: %w", runID, err))
	}
	if err := a.broker.Publish(ctx, contracts.TopicReports, runID, rep); err != nil {
		errs = append(errs, fmt.Errorf("publish report %s: %w", runID, err))
	}
	return errors.Join(errs...)
}

func (a *Agent) remember(runID string) {
	a.recent[runID] = struct{}{}
	a.recentOrder = append(a.recentOrder, runID)
	if len(a.recentOrder) > recentRunLimit {
		delete(a.recent, a.recentOrder[0])
		a.recentOrder = a.recentOrder[1:]
	}
}

// evictIdleRuns discards runs that went quiet for longer than the TTL. Their run IDs are
// remembered so late chunks do not restart them halfway through the log.
func (a *Agent) evictIdleRuns() {
	now := a.now()
	for runID, r := range a.runs {
		if now.Sub(r.lastSeen) > a.runTTL {
			a.discardRun(runID, r, "idle for "+now.Sub(r.lastSeen).Round(time.Second).String())
		}
	}
}

func (a *Agent) discardRun(runID string, r *run, reason string) {
	a.logger.Error("[IngestAgent] Discarding incomplete run %s (%d chunks applied, %d buffered): %s",
		runID, r.next, len(r.pending), reason)
	delete(a.runs, runID)
	a.remember(runID)
	a.recorder.SetActiveRuns(len(a.runs))
}

func (a *Agent) discardOpenRuns() {
	for runID, r := range a.runs {
		a.logger.Error("[IngestAgent] Discarding incomplete run %s (%d chunks applied, %d buffered)",
			runID, r.next, len(r.pending))
	}
	a.runs = make(map[string]*run)
	a.recorder.SetActiveRuns(0)
}
