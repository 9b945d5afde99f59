package poll

import (
	"errors"
	"fmt"
)

// ErrNoActiveJobs is returned when there is nothing to poll.
var ErrNoActiveJobs = errors.New("no active jobs found")

// TraceAnomaly reports a trace that does not extend the one observed before.
type TraceAnomaly struct {
	JobID    int
	PrevLen  int
	FetchLen int
}

func (e *TraceAnomaly) Error() string {
	return fmt.Sprintf("job %d: trace was rewritten (had %d bytes, now %d); re-emitting it in full",
		e.JobID, e.PrevLen, e.FetchLen)
}

// SessionError ends a session early because a job kept failing.
type SessionError struct {
	JobID    int
	Failures int
	Err      error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("giving up on job %d after %d consecutive failures: %v", e.JobID, e.Failures, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
