package model

// Status is the CI status token reported for a job, e.g. "running" or "failed".
type Status string

const (
	StatusCreated  Status = "created"
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	StatusSkipped  Status = "skipped"
	StatusManual   Status = "manual"
)

// ActiveStatuses are the statuses of a job that has not reached a terminal state.
var ActiveStatuses = []Status{StatusRunning, StatusPending, StatusCreated}

// Active reports whether s is one of ActiveStatuses. Anything else, including
// unknown tokens, counts as finished.
func (s Status) Active() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// Job is a single CI job captured when the run starts.
type Job struct {
	ID     int
	Name   string
	Stage  string
	Commit string // full commit SHA
	Status Status // status at capture time
	WebURL string
}

// Target identifies what to follow: the forge host, the project path on that
// host and the commit whose jobs are tracked.
type Target struct {
	Host    string // e.g. "gitlab.com"
	Project string // e.g. "group/sub/project"
	Commit  string
}
