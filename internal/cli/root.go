package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobtail/internal/config"
	"jobtail/internal/forge"
	"jobtail/internal/git"
	"jobtail/internal/logs"
	"jobtail/internal/model"
	"jobtail/internal/poll"
	"jobtail/internal/tui"
)

// version is set at build time with -ldflags "-X jobtail/internal/cli.version=...".
var version = "dev"

var log = logging.MustGetLogger("cli")

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, newRootCmd(), os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, poll.ErrNoActiveJobs):
		fmt.Fprintln(stderr, tui.Error("No active jobs found"))
		return 1
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(stderr, tui.Error("timed out waiting for jobs to finish"))
		return 1
	default:
		fmt.Fprintln(stderr, tui.Error("error: "+err.Error()))
		return 1
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "jobtail",
		Short: "Follow the GitLab CI jobs of the current commit",
		Long: "jobtail finds the running, pending and created jobs of HEAD on the\n" +
			"project behind the origin remote and streams their logs until they finish.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cmd.Flags())
			if err != nil {
				return err
			}
			if err := logs.Init(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
				return err
			}
			return follow(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	config.RegisterFlags(cmd.Flags())

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return cmd
}

// follow resolves what to watch, captures the active jobs once and polls
// them until they have all finished.
func follow(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	target, err := git.Resolve(ctx, cfg.Dir, cfg.Remote, git.Overrides{
		Host:    cfg.Host,
		Project: cfg.Project,
		Commit:  cfg.Commit,
	})
	if err != nil {
		return err
	}
	log.Debugf("following %s on %s at %s", target.Project, target.Host, target.Commit)

	var opts []forge.Option
	if cfg.APIURL != "" {
		opts = append(opts, forge.WithBaseURL(cfg.APIURL))
	}
	f, err := forge.Detect(target, cfg.Token, opts...)
	if err != nil {
		return err
	}

	list := func(ctx context.Context) ([]model.Job, error) {
		return f.ListActiveJobs(ctx, target.Commit)
	}
	var jobs []model.Job
	if cfg.NoSpinner {
		jobs, err = list(ctx)
	} else {
		jobs, err = tui.RunWithSpinner(ctx, stderr, "Fetching jobs for: "+tui.Highlight(target.Project), list)
	}
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return poll.ErrNoActiveJobs
	}

	fmt.Fprintln(stdout, "Processing job: "+jobIDs(jobs))

	s := poll.NewSession(jobs)
	engine := poll.NewEngine(f, stdout,
		poll.WithInterval(cfg.Interval),
		poll.WithMaxFailures(cfg.MaxFailures),
	)
	err = engine.Run(ctx, s)
	fmt.Fprint(stderr, "\n"+tui.Summary(s.Jobs(), s.Status))
	return err
}

func jobIDs(jobs []model.Job) string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = strconv.Itoa(j.ID)
	}
	return strings.Join(ids, ",")
}
