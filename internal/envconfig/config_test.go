package envconfig

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                              DefaultBaseURL,
		"https://mirror.example/mnist/": "https://mirror.example/mnist/",
		"https://mirror.example/mnist":  "https://mirror.example/mnist/",
		"\"https://mirror.example/\"":   "https://mirror.example/",
		"not a url":                     DefaultBaseURL,
		"/relative/path/":               DefaultBaseURL,
	}

	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("MNIST_BASE_URL", value)
			assert.Equal(t, want, BaseURL())
		})
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("MNIST_CACHE_DIR", "")
	assert.Equal(t, os.TempDir(), CacheDir())

	t.Setenv("MNIST_CACHE_DIR", "/var/cache/mnist")
	assert.Equal(t, "/var/cache/mnist", CacheDir())
}

func TestSeed(t *testing.T) {
	cases := map[string]int64{
		"":      DefaultSeed,
		"42":    42,
		"-7":    -7,
		"seven": DefaultSeed,
	}

	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("MNIST_SEED", value)
			assert.Equal(t, want, Seed())
		})
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"t":     slog.LevelDebug,
		"1":     slog.LevelDebug,
		"2":     slog.Level(-8),
		"-1":    slog.LevelWarn,
	}

	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("MNIST_DEBUG", value)
			assert.Equal(t, want, LogLevel())
		})
	}
}

func TestAsMap(t *testing.T) {
	t.Setenv("MNIST_SEED", "9")

	m := AsMap()
	assert.Len(t, m, 4)
	assert.Equal(t, int64(9), m["MNIST_SEED"].Value)
	for name, v := range m {
		assert.Equal(t, name, v.Name)
		assert.NotEmpty(t, v.Description)
	}
}
