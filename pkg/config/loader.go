package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type loadOptions struct {
	files       []string
	environment map[string]string
	prefix      string
}

// Option configures Load.
type Option func(*loadOptions)

// WithEnvFiles reads variables from the given .env files. Files listed later
// override earlier ones. Variables already set in the environment win over
// every file.
func WithEnvFiles(paths ...string) Option {
	return func(o *loadOptions) {
		o.files = append(o.files, paths...)
	}
}

// WithEnvironment replaces the process environment with vars.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = maps.Clone(vars)
	}
}

// WithPrefix is prepended to every env tag.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.prefix = prefix
	}
}

// Load parses the environment into v using its env struct tags.
//
// Example:
//
//	type StorageConfig struct {
//		Driver string `env:"STORAGE_DRIVER" envDefault:"file"`
//		DSN    string `env:"STORAGE_DSN,required"`
//	}
//
//	var cfg StorageConfig
//	err := config.Load(&cfg, config.WithEnvFiles(".env"))
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	environ := o.environment
	if environ == nil {
		environ = processEnvironment()
	}

	if len(o.files) > 0 {
		fromFiles, err := godotenv.Read(o.files...)
		if err != nil {
			return errors.Join(ErrReadingEnvFile, err)
		}
		for k, val := range fromFiles {
			if _, set := environ[k]; !set {
				environ[k] = val
			}
		}
	}

	if err := env.ParseWithOptions(v, env.Options{
		Environment: environ,
		Prefix:      o.prefix,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

func processEnvironment() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}
