package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes the environment variable of every flag.
const EnvPrefix = "FIELDSYNC"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds runtime settings. It is embedded into the kong command line.
type Config struct {
	ConfigFile kong.ConfigFlag `name:"config" short:"c" help:"JSON configuration file."`

	DBPath string `name:"db-path" help:"Local SQLite database file." default:"fieldsync.db"`

	ProbeAddr           string        `name:"probe-addr" help:"gRPC health endpoint used as connectivity signal. Empty means manual online/offline." default:""`
	ProbeService        string        `name:"probe-service" help:"Service name sent in health checks." default:""`
	OnlineCheckInterval time.Duration `name:"online-check-interval" help:"How often the health endpoint is probed." default:"3s"`
	ProbeTimeout        time.Duration `name:"probe-timeout" help:"Timeout of one probe." default:"1s"`
	StartOffline        bool          `name:"start-offline" help:"Start in offline mode (manual connectivity only)."`

	SubmitTimeout   time.Duration `name:"submit-timeout" help:"Upper bound of one save." default:"10s"`
	SaveDelay       time.Duration `name:"save-delay" help:"Latency of the simulated save collaborator." default:"2s"`
	SaveFailureRate float64       `name:"save-failure-rate" help:"Probability in [0,1] that a simulated save fails." default:"0"`

	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address. Empty disables." default:""`
	LogLevel    string `name:"log-level" help:"debug, info, warn or error." default:"info" enum:"debug,info,warn,error"`
	LogFormat   string `name:"log-format" help:"text or json." default:"text" enum:"text,json"`
}

// ManualConnectivity reports whether connectivity is driven by commands
// instead of a health probe.
func (c *Config) ManualConnectivity() bool {
	return c.ProbeAddr == ""
}

// Validate checks cross-field constraints kong tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db-path is required"))
	}
	if c.OnlineCheckInterval <= 0 {
		errs = append(errs, errors.New("online-check-interval must be positive"))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("probe-timeout must be positive"))
	}
	if c.SubmitTimeout <= 0 {
		errs = append(errs, errors.New("submit-timeout must be positive"))
	}
	if c.SaveDelay < 0 {
		errs = append(errs, errors.New("save-delay must not be negative"))
	}
	if c.SaveFailureRate < 0 || c.SaveFailureRate > 1 {
		errs = append(errs, errors.New("save-failure-rate must be within [0,1]"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Options returns the kong options every parser of Config needs.
func Options() []kong.Option {
	return []kong.Option{
		kong.Configuration(kong.JSON),
		kong.DefaultEnvars(EnvPrefix),
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Parse builds a Config from args alone, for tools and tests that do not
// need the full command line.
func Parse(args []string, opts ...kong.Option) (*Config, error) {
	var cli struct {
		Config `embed:""`
	}

	all := append([]kong.Option{kong.Name("fieldsync")}, Options()...)
	parser, err := kong.New(&cli, append(all, opts...)...)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	if err := cli.Validate(); err != nil {
		return nil, err
	}
	return &cli.Config, nil
}
