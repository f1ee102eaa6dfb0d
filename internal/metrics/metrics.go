// Package metrics tracks per-run counters for the fetch jobs.
//
// Counters live in a private Prometheus registry. A run can export them in the
// text exposition format to a file, for pickup by a node_exporter textfile collector.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "party_fetcher"

// Recorder holds the collectors of one process
type Recorder struct {
	registry         *prometheus.Registry
	fetchSource      *prometheus.CounterVec
	backendResponses *prometheus.CounterVec
	reauths          *prometheus.CounterVec
	records          *prometheus.GaugeVec
}

var defaultRecorder = New()

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Go Out fetches by category and the source that produced the URLs",
		}, []string{"category", "source"}),
		backendResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_responses_total",
			Help:      "Admin backend responses by endpoint and status code",
		}, []string{"endpoint", "status"}),
		reauths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reauthentications_total",
			Help:      "Token renewals after a 401",
		}, []string{"target"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Event records produced by the last run of each job",
		}, []string{"job"}),
	}
	r.registry.MustRegister(r.fetchSource, r.backendResponses, r.reauths, r.records)
	return r
}

// Default returns the package-level recorder
func Default() *Recorder {
	return defaultRecorder
}

// SetDefault replaces the package-level recorder
func SetDefault(r *Recorder) {
	defaultRecorder = r
}

// FetchSource counts a fetch answered by source ("api" or "html")
func (r *Recorder) FetchSource(category, source string) {
	r.fetchSource.WithLabelValues(category, source).Inc()
}

// BackendResponse counts one admin backend response
func (r *Recorder) BackendResponse(endpoint string, status int) {
	r.backendResponses.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// Reauth counts a token renewal against target ("backend" or "goout")
func (r *Recorder) Reauth(target string) {
	r.reauths.WithLabelValues(target).Inc()
}

// Records sets the record count of a job
func (r *Recorder) Records(job string, count int) {
	r.records.WithLabelValues(job).Set(float64(count))
}

// WriteTextfile writes every collector to path in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// FetchSource counts a fetch on the default recorder
func FetchSource(category, source string) {
	defaultRecorder.FetchSource(category, source)
}

// BackendResponse counts a backend response on the default recorder
func BackendResponse(endpoint string, status int) {
	defaultRecorder.BackendResponse(endpoint, status)
}

// Reauth counts a token renewal on the default recorder
func Reauth(target string) {
	defaultRecorder.Reauth(target)
}

// Records sets a job's record count on the default recorder
func Records(job string, count int) {
	defaultRecorder.Records(job, count)
}
