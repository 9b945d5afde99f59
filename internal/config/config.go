package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/op/go-logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "JOBTAIL"

// Config is the resolved configuration of a run.
type Config struct {
	Token       string        `mapstructure:"token"`
	Remote      string        `mapstructure:"remote"`
	Dir         string        `mapstructure:"dir"`
	Interval    time.Duration `mapstructure:"interval"`
	MaxFailures int           `mapstructure:"max-failures"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Host        string        `mapstructure:"host"`
	Project     string        `mapstructure:"project"`
	Commit      string        `mapstructure:"commit"`
	APIURL      string        `mapstructure:"api-url"`
	LogLevel    string        `mapstructure:"log-level"`
	Verbose     bool          `mapstructure:"verbose"`
	NoSpinner   bool          `mapstructure:"no-spinner"`
}

// RegisterFlags adds every configuration key as a flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default $XDG_CONFIG_HOME/jobtail/config.yaml)")
	fs.String("remote", "origin", "git remote used to find the GitLab project")
	fs.String("dir", ".", "directory inside the git repository")
	fs.Duration("interval", 2*time.Second, "pause between polls")
	fs.Int("max-failures", 0, "give up after this many consecutive failed polls of one job (0 = never)")
	fs.Duration("timeout", 0, "stop following after this long (0 = no limit)")
	fs.String("host", "", "GitLab host (default: taken from the remote)")
	fs.String("project", "", "project path, e.g. group/project (default: taken from the remote)")
	fs.String("commit", "", "commit SHA to follow (default: HEAD)")
	fs.String("api-url", "", "GitLab API base URL (default https://<host>/api/v4)")
	fs.String("log-level", "WARNING", "log level: CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG")
	fs.BoolP("verbose", "v", false, "shorthand for --log-level=DEBUG")
	fs.Bool("no-spinner", false, "do not animate while listing jobs")
}

// Load merges flags, environment and the optional config file, in that
// order of precedence. The token is read from JOBTAIL_TOKEN, GITLAB_TOKEN or
// GL_TOKEN, whichever is set first.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("token", envPrefix+"_TOKEN", "GITLAB_TOKEN", "GL_TOKEN"); err != nil {
		return nil, err
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if cfg.Verbose {
		cfg.LogLevel = "DEBUG"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config: %w", err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(dir, "jobtail"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("could not read config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.MaxFailures < 0 {
		return fmt.Errorf("max-failures must not be negative, got %d", c.MaxFailures)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := logging.LogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	return nil
}
