package prometheus_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/docscrape"
	dsprom "github.com/fwojciec/docscrape/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	obs, err := dsprom.NewObserver(reg)
	require.NoError(t, err)
	obs.OnProgress(docscrape.ProgressSnapshot{RunID: "r1", Processed: 4})

	srv := httptest.NewServer(dsprom.NewRouter(reg))
	t.Cleanup(srv.Close)

	get := func(t *testing.T, path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	t.Run("healthz", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, "/healthz")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok\n", body)
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, "/metrics")
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, strings.Contains(body, `docscrape_pages_processed_total{run="r1"} 4`), body)
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()
		code, _ := get(t, "/runs")
		assert.Equal(t, http.StatusNotFound, code)
	})
}
