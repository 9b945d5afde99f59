package forge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gogitlab "github.com/xanzy/go-gitlab"

	"jobtail/internal/model"
)

const perPage = 100

type options struct {
	baseURL    string
	retryMax   int
	setRetries bool
	httpClient *http.Client
}

// Option configures the GitLab client.
type Option func(*options)

// WithBaseURL overrides the API endpoint, e.g. "http://gitlab.local/api/v4".
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithRetryMax sets how often the HTTP layer itself retries a request.
func WithRetryMax(n int) Option {
	return func(o *options) { o.retryMax, o.setRetries = n, true }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

type gitLab struct {
	project string
	jobs    *gogitlab.JobsService
}

// NewGitLab returns a Forge backed by the GitLab REST API of host.
func NewGitLab(host, project, token string, opts ...Option) (Forge, error) {
	o := options{baseURL: "https://" + host + "/api/v4"}
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := []gogitlab.ClientOptionFunc{gogitlab.WithBaseURL(o.baseURL)}
	if o.setRetries {
		clientOpts = append(clientOpts, gogitlab.WithCustomRetryMax(o.retryMax))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, gogitlab.WithHTTPClient(o.httpClient))
	}

	client, err := gogitlab.NewClient(token, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gitlab client: %w", err)
	}
	return &gitLab{project: project, jobs: client.Jobs}, nil
}

func (g *gitLab) Kind() string { return "gitlab" }

func (g *gitLab) ListActiveJobs(ctx context.Context, commit string) ([]model.Job, error) {
	scope := make([]gogitlab.BuildStateValue, 0, len(model.ActiveStatuses))
	for _, s := range model.ActiveStatuses {
		scope = append(scope, gogitlab.BuildStateValue(s))
	}
	opt := &gogitlab.ListJobsOptions{
		ListOptions: gogitlab.ListOptions{PerPage: perPage, Page: 1},
		Scope:       &scope,
	}

	var jobs []model.Job
	for {
		page, resp, err := g.jobs.ListProjectJobs(g.project, opt, gogitlab.WithContext(ctx))
		if err != nil {
			return nil, &FetchError{Op: "list", Err: err}
		}
		for _, j := range page {
			if j.Commit == nil || j.Commit.ID != commit {
				continue
			}
			jobs = append(jobs, toJob(j))
		}
		if resp.NextPage == 0 {
			return jobs, nil
		}
		opt.Page = resp.NextPage
	}
}

func (g *gitLab) Trace(ctx context.Context, jobID int) (string, error) {
	r, resp, err := g.jobs.GetTraceFile(g.project, jobID, gogitlab.WithContext(ctx))
	if err != nil {
		return "", wrap("trace", jobID, resp, err)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", &FetchError{Op: "trace", JobID: jobID, Err: err}
	}
	return string(b), nil
}

func (g *gitLab) Status(ctx context.Context, jobID int) (model.Status, error) {
	j, resp, err := g.jobs.GetJob(g.project, jobID, gogitlab.WithContext(ctx))
	if err != nil {
		return "", wrap("status", jobID, resp, err)
	}
	return model.Status(j.Status), nil
}

func toJob(j *gogitlab.Job) model.Job {
	job := model.Job{
		ID:     j.ID,
		Name:   j.Name,
		Stage:  j.Stage,
		Status: model.Status(j.Status),
		WebURL: j.WebURL,
	}
	if j.Commit != nil {
		job.Commit = j.Commit.ID
	}
	return job
}

func wrap(op string, jobID int, resp *gogitlab.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return &FetchError{Op: op, JobID: jobID, Err: errors.Join(ErrNotFound, err)}
	}
	return &FetchError{Op: op, JobID: jobID, Err: err}
}
