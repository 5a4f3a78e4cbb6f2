// Package envconfig reads environment overrides for the dataset defaults.
//
// Every value has a built-in default; the environment only changes where
// files come from, where they are cached, how the sampler is seeded and
// how verbose logging is.
package envconfig

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// DefaultBaseURL is the canonical MNIST distribution host.
const DefaultBaseURL = "http://yann.lecun.com/exdb/mnist/"

// DefaultSeed seeds the sampler when MNIST_SEED is unset.
const DefaultSeed int64 = 1

// BaseURL returns the directory URL dataset files are fetched from.
// Configurable via MNIST_BASE_URL.
// Default: http://yann.lecun.com/exdb/mnist/
func BaseURL() string {
	s := Var("MNIST_BASE_URL")
	if s == "" {
		return DefaultBaseURL
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		slog.Warn("invalid base url, using default", "value", s, "default", DefaultBaseURL)
		return DefaultBaseURL
	}
	// Relative resolution drops the last path element unless it ends in '/'.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// CacheDir returns the directory raw dataset files are cached in.
// Configurable via MNIST_CACHE_DIR.
// Default: the system temporary directory
func CacheDir() string {
	if s := Var("MNIST_CACHE_DIR"); s != "" {
		return s
	}
	return os.TempDir()
}

// Seed returns the sampler seed.
// Configurable via MNIST_SEED.
// Default: 1
func Seed() int64 {
	if s := Var("MNIST_SEED"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			slog.Warn("invalid environment variable, using default", "key", "MNIST_SEED", "value", s, "default", DefaultSeed)
			return DefaultSeed
		}
		return n
	}
	return DefaultSeed
}

// LogLevel returns the log level for the application.
// Configurable via MNIST_DEBUG: a true value selects debug, an integer n
// selects slog.Level(-4n).
// Default: Info
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("MNIST_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// EnvVar describes one environment variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every recognized variable with its effective value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"MNIST_BASE_URL":  {"MNIST_BASE_URL", BaseURL(), "Directory URL dataset files are downloaded from"},
		"MNIST_CACHE_DIR": {"MNIST_CACHE_DIR", CacheDir(), "Directory downloaded files are cached in (default: system temp dir)"},
		"MNIST_SEED":      {"MNIST_SEED", Seed(), "Seed for the label-balanced sampler (default 1)"},
		"MNIST_DEBUG":     {"MNIST_DEBUG", LogLevel(), "Show additional debug information (e.g. MNIST_DEBUG=1)"},
	}
}

// Var returns an environment variable stripped of leading and trailing
// quotes or spaces.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
