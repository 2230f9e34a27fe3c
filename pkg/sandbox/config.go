package sandbox

import (
	"time"

	"github.com/linksquared/linksquared-go/pkg/api/apitest"
)

// Config is the environment form of the server and backend options.
type Config struct {
	Addr            string        `env:"LINKSQUARED_SANDBOX_ADDR" envDefault:"127.0.0.1:8787"`
	BasePath        string        `env:"LINKSQUARED_SANDBOX_BASE_PATH" envDefault:"/api/v1/sdk"`
	APIKey          string        `env:"LINKSQUARED_SANDBOX_API_KEY" envDefault:"ls_test_key"`
	LinkDomain      string        `env:"LINKSQUARED_SANDBOX_LINK_DOMAIN" envDefault:"https://sqd.link/"`
	ReadTimeout     time.Duration `env:"LINKSQUARED_SANDBOX_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"LINKSQUARED_SANDBOX_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"LINKSQUARED_SANDBOX_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// BackendOptions returns the apitest options described by cfg.
func (cfg Config) BackendOptions() []apitest.Option {
	var opts []apitest.Option
	if cfg.APIKey != "" {
		opts = append(opts, apitest.WithAPIKey(cfg.APIKey))
	}
	if cfg.LinkDomain != "" {
		opts = append(opts, apitest.WithLinkDomain(cfg.LinkDomain))
	}
	return opts
}

// NewFromConfig builds a backend and server from cfg. Zero values keep the
// package defaults.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	var base []Option
	if cfg.Addr != "" {
		base = append(base, WithAddr(cfg.Addr))
	}
	if cfg.BasePath != "" {
		base = append(base, WithBasePath(cfg.BasePath))
	}
	if cfg.ReadTimeout > 0 {
		base = append(base, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		base = append(base, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		base = append(base, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	return New(apitest.New(cfg.BackendOptions()...), append(base, opts...)...)
}
