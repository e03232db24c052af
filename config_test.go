package docscrape_test

import (
	"testing"
	"time"

	"github.com/fwojciec/docscrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_is_valid(t *testing.T) {
	t.Parallel()

	cfg := docscrape.DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *docscrape.Config)
	}{
		{"zero connections", func(c *docscrape.Config) { c.MaxConnections = 0 }},
		{"per host above global", func(c *docscrape.Config) { c.MaxPerHost = c.MaxConnections + 1 }},
		{"zero rate", func(c *docscrape.Config) { c.RateLimit = 0 }},
		{"zero burst", func(c *docscrape.Config) { c.Burst = 0 }},
		{"zero workers", func(c *docscrape.Config) { c.MaxWorkers = 0 }},
		{"no timeout", func(c *docscrape.Config) { c.RequestTimeout = 0 }},
		{"no attempts", func(c *docscrape.Config) { c.MaxRetries = 0 }},
		{"negative backoff", func(c *docscrape.Config) { c.BackoffBase = -time.Second }},
		{"negative checkpoint interval", func(c *docscrape.Config) { c.CheckpointInterval = -1 }},
		{"zero progress interval", func(c *docscrape.Config) { c.ProgressInterval = 0 }},
		{"zero body limit", func(c *docscrape.Config) { c.MaxBodyBytes = 0 }},
		{"unknown processor", func(c *docscrape.Config) { c.Processor = "pdf" }},
		{"resume without run id", func(c *docscrape.Config) { c.Resume = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := docscrape.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, docscrape.EINVALID, docscrape.ErrorCode(err))
		})
	}
}

func TestCompileFilter(t *testing.T) {
	t.Parallel()

	t.Run("nil when no patterns", func(t *testing.T) {
		t.Parallel()

		f, err := docscrape.CompileFilter(nil, nil)
		require.NoError(t, err)
		assert.Nil(t, f)
		assert.True(t, f.Match("https://example.com/anything"))
	})

	t.Run("include then exclude", func(t *testing.T) {
		t.Parallel()

		f, err := docscrape.CompileFilter([]string{`/docs/`}, []string{`/docs/legacy/`})
		require.NoError(t, err)

		assert.True(t, f.Match("https://example.com/docs/intro"))
		assert.False(t, f.Match("https://example.com/blog/post"))
		assert.False(t, f.Match("https://example.com/docs/legacy/v1"))
	})

	t.Run("invalid pattern is a config error", func(t *testing.T) {
		t.Parallel()

		_, err := docscrape.CompileFilter([]string{`(`}, nil)
		require.Error(t, err)
		assert.Equal(t, docscrape.EINVALID, docscrape.ErrorCode(err))
	})
}
