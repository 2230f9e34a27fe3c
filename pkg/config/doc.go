// Package config loads configuration structs from environment variables.
//
// It wraps `github.com/caarlos0/env/v11` for struct-tag parsing and
// `github.com/joho/godotenv` for reading `.env` files. Files are merged into
// the variables Load parses without touching the process environment, and
// variables already present in the environment take precedence over files.
//
// # Usage
//
//	type Config struct {
//	    APIKey string `env:"API_KEY,required"`
//	    Debug  bool   `env:"DEBUG" envDefault:"false"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg, config.WithEnvFiles(".env", ".env.local")); err != nil {
//	    log.Fatalf("config: %v", err)
//	}
//
// Tests pass the variables explicitly:
//
//	err := config.Load(&cfg, config.WithEnvironment(map[string]string{
//	    "API_KEY": "test",
//	}))
//
// # Error Handling
//
// Errors can be compared with `errors.Is`:
//
//   - `ErrParsingConfig` – failed to parse env vars into the struct.
//   - `ErrReadingEnvFile` – an env file could not be read.
//   - `ErrNilPointer` – Load was called with a nil pointer.
package config
