package poll

import (
	"jobtail/internal/model"
)

// jobState is everything the engine remembers about one job. During a tick
// it is only touched by the goroutine polling that job.
type jobState struct {
	job      model.Job
	seen     bool   // false until the first successful trace fetch
	trace    string // last observed cumulative trace
	active   bool   // flips to false exactly once
	status   model.Status
	failures int // consecutive failed polls
}

// Session holds the state of one polling run over a fixed set of jobs.
type Session struct {
	jobs   []model.Job
	states map[int]*jobState
}

// NewSession captures jobs. The set never changes afterwards; duplicate IDs
// are tracked once.
func NewSession(jobs []model.Job) *Session {
	s := &Session{states: make(map[int]*jobState, len(jobs))}
	for _, j := range jobs {
		if _, dup := s.states[j.ID]; dup {
			continue
		}
		s.jobs = append(s.jobs, j)
		s.states[j.ID] = &jobState{job: j, active: true, status: j.Status}
	}
	return s
}

// Jobs returns the tracked jobs in capture order.
func (s *Session) Jobs() []model.Job {
	return append([]model.Job(nil), s.jobs...)
}

// Trace returns the last observed trace of a job and whether one was seen.
func (s *Session) Trace(id int) (string, bool) {
	st, ok := s.states[id]
	if !ok {
		return "", false
	}
	return st.trace, st.seen
}

// Active reports whether a job is still considered running. Unknown jobs are
// assumed active.
func (s *Session) Active(id int) bool {
	st, ok := s.states[id]
	return !ok || st.active
}

// Status returns the last status observed for a job.
func (s *Session) Status(id int) model.Status {
	if st, ok := s.states[id]; ok {
		return st.status
	}
	return ""
}

// Finished reports whether every tracked job has reached a terminal state.
func (s *Session) Finished() bool {
	for _, st := range s.states {
		if st.active {
			return false
		}
	}
	return true
}

func (s *Session) activeStates() []*jobState {
	var out []*jobState
	for _, j := range s.jobs {
		if st := s.states[j.ID]; st.active {
			out = append(out, st)
		}
	}
	return out
}
