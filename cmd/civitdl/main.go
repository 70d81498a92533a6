// Command civitdl downloads generative-model artifacts from the Civitai
// catalog into a locally organized directory tree.
//
// Configuration is read from <user config dir>/civitdl/civitdl.toml, or
// the file named by the CIVITDL_CONFIG environment variable, with
// environment variables overriding file values:
//   - api_key, token
//   - stable_diffusion_base_directory, stable_diffusion_fallback_directory
//   - model_format, resource_type
//   - civitdl_concurrency
//
// CIVITDL_LOG_LEVEL controls log verbosity (debug, info, warn, error).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	civit "github.com/evanjs/civitdl"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments or configuration.
	ExitInvalidArgs = 2

	// ExitFetchFailed indicates a network or HTTP failure.
	ExitFetchFailed = 3

	// ExitVersionNotFound indicates the override version does not exist.
	ExitVersionNotFound = 4

	// ExitIOError indicates a local filesystem failure.
	ExitIOError = 5
)

func main() {
	logger := newLogger()

	configPath := os.Getenv("CIVITDL_CONFIG")
	if configPath == "" {
		configPath = civit.DefaultConfigPath()
	}

	cfg, err := civit.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(ExitInvalidArgs)
	}
	logger.Debug("configuration loaded",
		"path", configPath,
		"baseDirectory", cfg.BaseDirectory,
		"fallbackDirectory", cfg.FallbackDirectory,
		"format", cfg.Preference().Format.String(),
		"resourceType", cfg.Preference().ResourceType.String())

	cmd := civit.NewCommand(cfg, civit.WithLogger(logger))
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, civit.ErrVersionNotFound):
		return ExitVersionNotFound
	case errors.Is(err, civit.ErrFetchFailed), errors.Is(err, civit.ErrParseFailed):
		return ExitFetchFailed
	case errors.Is(err, civit.ErrIO), errors.Is(err, civit.ErrPathResolution):
		return ExitIOError
	default:
		return ExitGeneralError
	}
}

// newLogger builds the zerolog-backed Logger handed to the library.
// Level comes from CIVITDL_LOG_LEVEL, defaulting to warn like the
// original tool.
func newLogger() zlogAdapter {
	level := zerolog.WarnLevel
	if parsed, err := zerolog.ParseLevel(os.Getenv("CIVITDL_LOG_LEVEL")); err == nil && os.Getenv("CIVITDL_LOG_LEVEL") != "" {
		level = parsed
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	return zlogAdapter{l: zl}
}

// zlogAdapter adapts zerolog to the library's Logger interface.
type zlogAdapter struct {
	l zerolog.Logger
}

func (a zlogAdapter) Debug(msg string, keysAndValues ...any) { emit(a.l.Debug(), msg, keysAndValues) }
func (a zlogAdapter) Info(msg string, keysAndValues ...any)  { emit(a.l.Info(), msg, keysAndValues) }
func (a zlogAdapter) Warn(msg string, keysAndValues ...any)  { emit(a.l.Warn(), msg, keysAndValues) }
func (a zlogAdapter) Error(msg string, keysAndValues ...any) { emit(a.l.Error(), msg, keysAndValues) }

func emit(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			e = e.Interface(key, kv[i+1])
		}
	}
	e.Msg(msg)
}
