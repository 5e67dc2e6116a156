package batch

import (
	"io"
	"log/slog"
)

// Config holds the settings applied by [Option] values.
type Config struct {
	workers   int
	log       *slog.Logger
	outputDir string
	suffix    string
	sep       []byte
}

// Option configures a [Runner].
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		workers: 4,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		suffix:  ".qp",
		sep:     []byte("\n"),
	}
}

// WithWorkers sets how many files are processed concurrently.
func WithWorkers(workers int) Option {
	return func(c *Config) {
		if workers > 0 {
			c.workers = workers
		}
	}
}

// WithLogger sets the logger for per-file results. Logs are discarded by
// default.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithOutputDir places results in dir instead of next to their input.
func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.outputDir = dir
	}
}

// WithSuffix sets the file name suffix added by encoding and removed by
// decoding.
func WithSuffix(suffix string) Option {
	return func(c *Config) {
		if suffix != "" {
			c.suffix = suffix
		}
	}
}

// WithLineSeparator sets what decoded hard line breaks become.
func WithLineSeparator(sep []byte) Option {
	return func(c *Config) {
		c.sep = append([]byte(nil), sep...)
	}
}
