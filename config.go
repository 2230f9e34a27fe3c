package linksquared

import (
	"errors"
	"fmt"
	"time"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/config"
	"github.com/linksquared/linksquared-go/pkg/kvstore"
	"github.com/linksquared/linksquared-go/pkg/logger"
)

// Config holds the SDK settings. Zero fields take the documented defaults,
// so a Config literal only needs an APIKey.
type Config struct {
	APIKey             string `env:"LINKSQUARED_API_KEY"`
	BaseURL            string `env:"LINKSQUARED_BASE_URL" envDefault:"https://sdk.sqd.link/api/v1/sdk/"`
	UseTestEnvironment bool   `env:"LINKSQUARED_TEST_ENVIRONMENT" envDefault:"false"`
	Disabled           bool   `env:"LINKSQUARED_DISABLED" envDefault:"false"`
	Platform           string `env:"LINKSQUARED_PLATFORM" envDefault:"android"`
	// MetadataFile is a YAML app description used when WithMetadata is not given.
	MetadataFile string `env:"LINKSQUARED_METADATA_FILE"`

	LogLevel  string `env:"LINKSQUARED_LOG_LEVEL" envDefault:"error"`
	LogFormat string `env:"LINKSQUARED_LOG_FORMAT" envDefault:"text"`

	RequestTimeout     time.Duration `env:"LINKSQUARED_REQUEST_TIMEOUT" envDefault:"40s"`
	EagerRetryAttempts int           `env:"LINKSQUARED_EAGER_RETRY_ATTEMPTS" envDefault:"15"`
	EagerRetryInterval time.Duration `env:"LINKSQUARED_EAGER_RETRY_INTERVAL" envDefault:"5s"`
	RetryInterval      time.Duration `env:"LINKSQUARED_RETRY_INTERVAL" envDefault:"60s"`
	EventRetryDelay    time.Duration `env:"LINKSQUARED_EVENT_RETRY_DELAY" envDefault:"5s"`
	ReactivationAfter  time.Duration `env:"LINKSQUARED_REACTIVATION_AFTER" envDefault:"168h"`

	Storage kvstore.Config
}

// LoadConfig reads the Config from LINKSQUARED_* variables.
func LoadConfig(opts ...config.Option) (Config, error) {
	var cfg Config
	if err := config.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings New cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("api key is required"))
	}
	switch logger.Format(c.LogFormat) {
	case logger.FormatJSON, logger.FormatText, "":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.EagerRetryAttempts < 0 {
		errs = append(errs, errors.New("eager retry attempts must not be negative"))
	}
	for name, d := range map[string]time.Duration{
		"request timeout":      c.RequestTimeout,
		"eager retry interval": c.EagerRetryInterval,
		"retry interval":       c.RetryInterval,
		"event retry delay":    c.EventRetryDelay,
		"reactivation after":   c.ReactivationAfter,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = api.DefaultBaseURL
	}
	if c.Platform == "" {
		c.Platform = "android"
	}
	if c.LogLevel == "" {
		c.LogLevel = string(logger.DebugLevelError)
	}
	if c.LogFormat == "" {
		c.LogFormat = string(logger.FormatText)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 40 * time.Second
	}
	if c.EagerRetryAttempts == 0 {
		c.EagerRetryAttempts = 15
	}
	if c.EagerRetryInterval == 0 {
		c.EagerRetryInterval = 5 * time.Second
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = time.Minute
	}
	if c.EventRetryDelay == 0 {
		c.EventRetryDelay = 5 * time.Second
	}
	if c.ReactivationAfter == 0 {
		c.ReactivationAfter = 7 * 24 * time.Hour
	}

	s := &c.Storage
	if s.Driver == "" {
		s.Driver = kvstore.DriverFile
	}
	if s.DSN == "" && s.Driver == kvstore.DriverFile {
		s.DSN = "linksquared.json"
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "linksquared:"
	}
	if s.Table == "" {
		s.Table = "linksquared_kv"
	}
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = 30 * time.Second
	}
	return c
}

func (c Config) backoff() api.BackoffStrategy {
	return api.TieredBackoff{
		EagerAttempts:  c.EagerRetryAttempts,
		EagerInterval:  c.EagerRetryInterval,
		SteadyInterval: c.RetryInterval,
	}
}
