package forge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobtail/internal/model"
)

// ErrNotFound is returned when the forge no longer knows about a job.
var ErrNotFound = errors.New("job not found")

// FetchError wraps a failed call to the forge API for a single job.
// It is transient from the caller's point of view.
type FetchError struct {
	Op    string // "list", "trace" or "status"
	JobID int
	Err   error
}

func (e *FetchError) Error() string {
	if e.JobID == 0 {
		return fmt.Sprintf("%s jobs: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s job %d: %v", e.Op, e.JobID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Forge abstracts the CI operations the poller needs.
type Forge interface {
	Kind() string // "gitlab"
	// ListActiveJobs returns the jobs of commit whose status is active.
	ListActiveJobs(ctx context.Context, commit string) ([]model.Job, error)
	// Trace returns the full cumulative log of a job as of now.
	Trace(ctx context.Context, jobID int) (string, error)
	// Status returns the current status of a job.
	Status(ctx context.Context, jobID int) (model.Status, error)
}

// Detect returns the forge for target, or an error if the host is not one we
// can talk to.
func Detect(target model.Target, token string, opts ...Option) (Forge, error) {
	host := strings.ToLower(target.Host)
	switch {
	case strings.Contains(host, "github.com"):
		return nil, fmt.Errorf("%s: GitHub Actions is not supported", target.Host)
	default:
		// Self-hosted GitLab instances rarely carry "gitlab" in their name,
		// so anything that isn't GitHub is treated as GitLab.
		return NewGitLab(target.Host, target.Project, token, opts...)
	}
}
