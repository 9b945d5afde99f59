// Package poll follows the logs of a fixed set of CI jobs until all of them
// have finished.
//
// Each tick polls every job that is still active in its own goroutine,
// emits whatever was appended to the job's trace since the last tick, then
// checks the job's status. The tick waits for all of them before the engine
// decides whether to stop or to sleep until the next one.
package poll

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/op/go-logging"

	"jobtail/internal/forge"
	"jobtail/internal/model"
)

// DefaultInterval is the pause between two ticks.
const DefaultInterval = 2 * time.Second

var log = logging.MustGetLogger("poll")

// Source is what the engine needs from the CI service.
type Source interface {
	Trace(ctx context.Context, jobID int) (string, error)
	Status(ctx context.Context, jobID int) (model.Status, error)
}

// Engine drives a Session to completion.
type Engine struct {
	src         Source
	out         *lockedWriter
	interval    time.Duration
	maxFailures int
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterval sets the pause between ticks.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithMaxFailures makes a tick fail with a *SessionError once a job has
// failed n polls in a row. Zero retries forever.
func WithMaxFailures(n int) Option {
	return func(e *Engine) { e.maxFailures = n }
}

// NewEngine returns an engine that reads from src and writes new log
// content to out.
func NewEngine(src Source, out io.Writer, opts ...Option) *Engine {
	e := &Engine{
		src:      src,
		out:      &lockedWriter{w: out},
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run ticks until every job in s has finished, ctx is done, or a tick
// returns a *SessionError.
func (e *Engine) Run(ctx context.Context, s *Session) error {
	if len(s.jobs) == 0 {
		return ErrNoActiveJobs
	}

	for n := 1; ; n++ {
		if err := e.Tick(ctx, s); err != nil {
			return err
		}
		if s.Finished() {
			log.Debugf("all %d jobs finished after %d ticks", len(s.jobs), n)
			return nil
		}

		t := time.NewTimer(e.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Tick polls every active job of s once and returns when all of them are done.
func (e *Engine) Tick(ctx context.Context, s *Session) error {
	active := s.activeStates()
	errs := make([]error, len(active))

	var wg sync.WaitGroup
	for i, st := range active {
		wg.Add(1)
		go func(i int, st *jobState) {
			defer wg.Done()
			errs[i] = e.poll(ctx, st)
		}(i, st)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// poll fetches the trace of one job, emits the new part and then checks
// whether the job is still running. The status is only looked at once the
// trace fetch has succeeded so the last chunk of output is never skipped.
func (e *Engine) poll(ctx context.Context, st *jobState) error {
	id := st.job.ID

	trace, err := e.src.Trace(ctx, id)
	if err != nil {
		return e.failed(ctx, st, err)
	}

	chunk, anomaly := Diff(st.trace, st.seen, trace)
	if anomaly {
		log.Warning(&TraceAnomaly{JobID: id, PrevLen: len(st.trace), FetchLen: len(trace)})
	}
	if chunk != "" {
		if _, err := io.WriteString(e.out, chunk); err != nil {
			log.Errorf("job %d: write output: %v", id, err)
		}
	}
	st.trace, st.seen = trace, true

	status, err := e.src.Status(ctx, id)
	if err != nil {
		return e.failed(ctx, st, err)
	}
	st.failures = 0
	st.status = status
	if !status.Active() {
		st.active = false
		log.Debugf("job %d (%s) finished: %s", id, st.job.Name, status)
	}
	return nil
}

func (e *Engine) failed(ctx context.Context, st *jobState, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, forge.ErrNotFound) {
		log.Warningf("job %d (%s) disappeared, no longer following it", st.job.ID, st.job.Name)
		st.active = false
		return nil
	}

	st.failures++
	log.Warningf("job %d: %v (will retry, %d in a row)", st.job.ID, err, st.failures)
	if e.maxFailures > 0 && st.failures >= e.maxFailures {
		return &SessionError{JobID: st.job.ID, Failures: st.failures, Err: err}
	}
	return nil
}

// lockedWriter serialises writes so concurrent chunks never interleave.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
