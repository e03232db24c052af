// Package prometheus exports run progress as Prometheus metrics.
package prometheus

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/fwojciec/docscrape"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ docscrape.ProgressObserver = (*Observer)(nil)

// Observer turns progress snapshots into metrics labelled by run.
// Cumulative snapshot fields feed counters by their increase since the
// previous snapshot of the same run.
type Observer struct {
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	pending   *prometheus.GaugeVec
	inFlight  *prometheus.GaugeVec
	rate      *prometheus.GaugeVec
	active    prometheus.Gauge

	mu   sync.Mutex
	last map[docscrape.RunID]docscrape.ProgressSnapshot
}

// NewObserver registers the collectors against reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	run := []string{"run"}
	o := &Observer{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscrape_pages_processed_total",
			Help: "URLs completed successfully or skipped.",
		}, run),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscrape_pages_failed_total",
			Help: "URLs that failed permanently.",
		}, run),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscrape_fetch_requests_total",
			Help: "Fetches started.",
		}, run),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscrape_fetch_errors_total",
			Help: "Fetches that returned an error.",
		}, run),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docscrape_fetch_bytes_total",
			Help: "Response bytes downloaded.",
		}, run),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "docscrape_queue_pending",
			Help: "URLs waiting in the queue.",
		}, run),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "docscrape_queue_in_flight",
			Help: "URLs being fetched or processed.",
		}, run),
		rate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "docscrape_pages_per_second",
			Help: "Completed URLs per second since the run started.",
		}, run),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docscrape_runs_active",
			Help: "Runs that have reported progress and not finished.",
		}),
		last: make(map[docscrape.RunID]docscrape.ProgressSnapshot),
	}
	for _, c := range []prometheus.Collector{
		o.processed, o.failed, o.requests, o.errors, o.bytes,
		o.pending, o.inFlight, o.rate, o.active,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return o, nil
}

// OnProgress updates the metrics of snap's run. It is safe for
// concurrent use.
func (o *Observer) OnProgress(snap docscrape.ProgressSnapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()

	prev, seen := o.last[snap.RunID]
	if !seen {
		o.active.Inc()
	}
	id := string(snap.RunID)
	addDelta(o.processed.WithLabelValues(id), prev.Processed, snap.Processed)
	addDelta(o.failed.WithLabelValues(id), prev.Failed, snap.Failed)
	addDelta(o.requests.WithLabelValues(id), prev.Requests, snap.Requests)
	addDelta(o.errors.WithLabelValues(id), prev.Errors, snap.Errors)
	addDelta(o.bytes.WithLabelValues(id), prev.BytesDownloaded, snap.BytesDownloaded)
	o.pending.WithLabelValues(id).Set(float64(snap.Pending))
	o.inFlight.WithLabelValues(id).Set(float64(snap.InFlight))
	o.rate.WithLabelValues(id).Set(snap.Rate)

	if snap.Done {
		delete(o.last, snap.RunID)
		o.active.Dec()
		return
	}
	o.last[snap.RunID] = snap
}

// counters never decrease; a lower value means a restarted source.
func addDelta(c prometheus.Counter, prev, cur int64) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
