package git

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"regexp"
	"strings"

	"jobtail/internal/model"
)

// DiscoveryError reports that the host, project or commit could not be
// determined from the local repository.
type DiscoveryError struct {
	Op  string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Op, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Overrides replace discovered values when non-empty.
type Overrides struct {
	Host    string
	Project string
	Commit  string
}

// RepoRoot returns the absolute path of the git repository containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", &DiscoveryError{Op: "repository root", Err: err}
	}
	return out, nil
}

// RemoteURL returns the configured URL of the named remote.
func RemoteURL(ctx context.Context, repoRoot, remote string) (string, error) {
	out, err := gitOutput(ctx, repoRoot, "remote", "get-url", remote)
	if err != nil {
		return "", &DiscoveryError{Op: "remote " + remote, Err: err}
	}
	return out, nil
}

// Head returns the full SHA of the checked out commit.
func Head(ctx context.Context, repoRoot string) (string, error) {
	out, err := gitOutput(ctx, repoRoot, "rev-parse", "HEAD")
	if err != nil {
		return "", &DiscoveryError{Op: "HEAD", Err: err}
	}
	return out, nil
}

// Resolve works out the forge host, project path and commit for the
// repository at dir. Values set in o win over anything read from git, and git
// is only consulted for what o leaves empty.
func Resolve(ctx context.Context, dir, remote string, o Overrides) (model.Target, error) {
	t := model.Target{Host: o.Host, Project: o.Project, Commit: o.Commit}
	if t.Host != "" && t.Project != "" && t.Commit != "" {
		return t, nil
	}

	root, err := RepoRoot(ctx, dir)
	if err != nil {
		return model.Target{}, err
	}

	if t.Host == "" || t.Project == "" {
		raw, err := RemoteURL(ctx, root, remote)
		if err != nil {
			return model.Target{}, err
		}
		host, project, err := ParseRemote(raw)
		if err != nil {
			return model.Target{}, err
		}
		if t.Host == "" {
			t.Host = host
		}
		if t.Project == "" {
			t.Project = project
		}
	}

	if t.Commit == "" {
		head, err := Head(ctx, root)
		if err != nil {
			return model.Target{}, err
		}
		t.Commit = head
	}
	return t, nil
}

var (
	// git@gitlab.com:group/project.git
	scpRemote   = regexp.MustCompile(`^(?:[\w.-]+@)?([a-zA-Z0-9][a-zA-Z0-9.-]*\.[a-zA-Z]{2,}):(.+)$`)
	projectPath = regexp.MustCompile(`^[a-zA-Z0-9_.-]+(?:/[a-zA-Z0-9_.-]+)+$`)
)

// ParseRemote extracts the host and the project path from a remote URL in
// either scp-like ("git@host:group/project.git") or URL form
// ("https://host/group/project.git", "ssh://git@host:2222/group/project").
func ParseRemote(remote string) (host, project string, err error) {
	remote = strings.TrimSpace(remote)

	switch {
	case strings.Contains(remote, "://"):
		u, perr := url.Parse(remote)
		if perr != nil {
			return "", "", &DiscoveryError{Op: "remote url", Err: perr}
		}
		host = u.Hostname()
		project = u.Path
	default:
		m := scpRemote.FindStringSubmatch(remote)
		if m == nil {
			return "", "", &DiscoveryError{Op: "remote url", Err: fmt.Errorf("unrecognised remote %q", remote)}
		}
		host, project = m[1], m[2]
	}

	project = strings.TrimSuffix(strings.Trim(project, "/"), ".git")
	if host == "" || !projectPath.MatchString(project) {
		return "", "", &DiscoveryError{
			Op:  "remote url",
			Err: fmt.Errorf("could not extract host and project from %q", remote),
		}
	}
	return strings.ToLower(host), project, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(ee.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}
