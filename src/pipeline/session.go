// Package pipeline connects the translator and the reporter and opens the broker and
// store backends the binaries share.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"xcreport/src/contracts"
	"xcreport/src/logger"
	"xcreport/src/metrics"
	"xcreport/src/report"
	"xcreport/src/sanitize"
	"xcreport/src/translate"
)

// MaxLineBytes is the longest console line Run accepts.
const MaxLineBytes = 1 << 20

// Session follows one build: every line goes through a Translator and every event it
// produces is applied to a Reporter. A Session is not safe for concurrent use.
type Session struct {
	translator *translate.Translator
	reporter   *report.Reporter
	recorder   metrics.Recorder
	hook       func(contracts.Event)
	log        logger.Logger
	lines      int
	events     int
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder counts lines and events on r.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithEventHook calls fn with every event after the reporter applied it.
func WithEventHook(fn func(contracts.Event)) Option {
	return func(s *Session) {
		s.hook = fn
	}
}

// WithLogger sets the logger used for debug tracing of events.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession returns a Session reporting to d, which must not be nil.
func NewSession(d report.Delegate, opts ...Option) *Session {
	s := &Session{
		translator: translate.New(),
		reporter:   report.NewReporter(d),
		recorder:   metrics.NoopRecorder{},
		log:        logger.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed processes one console line and returns the event it produced, if any.
func (s *Session) Feed(line string) (contracts.Event, bool) {
	s.lines++
	s.recorder.IncLines(1)

	ev, ok := s.translator.Feed(sanitize.CleanLine(line))
	if !ok {
		return nil, false
	}

	s.events++
	s.recorder.IncEvent(string(ev.Kind()))
	s.log.Debug("[Session] line %d: %s", s.lines, ev.Kind())

	s.reporter.Apply(ev)
	if s.hook != nil {
		s.hook(ev)
	}
	return ev, true
}

// FeedLines processes lines in order.
func (s *Session) FeedLines(lines []string) {
	for _, line := range lines {
		s.Feed(line)
	}
}

// Run feeds every line of r in order until EOF or until ctx is done. On cancellation
// the build is left as it was after the last line processed.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.Feed(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("line %d exceeds %d bytes: %w", s.lines+1, MaxLineBytes, err)
		}
		return fmt.Errorf("failed to read build log: %w", err)
	}
	return nil
}

// Build returns the live build. Clone it before handing it to another goroutine.
func (s *Session) Build() *report.Build {
	return s.reporter.Build()
}

// State returns a copy of the translator scan state.
func (s *Session) State() translate.ScanState {
	return s.translator.State()
}

// Lines returns how many lines were fed.
func (s *Session) Lines() int {
	return s.lines
}

// Events returns how many events the lines produced.
func (s *Session) Events() int {
	return s.events
}
