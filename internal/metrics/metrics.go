// Package metrics exports session activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teamsync"

// Recorder implements ports.Metrics on a Prometheus registry.
type Recorder struct {
	gatherer prometheus.Gatherer

	drawsStarted    prometheus.Counter
	drawsFinished   *prometheus.CounterVec
	drawsRejected   *prometheus.CounterVec
	groupsGenerated prometheus.Counter
	namesLoaded     *prometheus.CounterVec
	sessionsOpen    prometheus.Gauge
}

// NewRecorder registers all collectors on a fresh registry together with
// the Go and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		gatherer: reg,
		drawsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_started_total",
			Help:      "Draw rounds started.",
		}),
		drawsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_finished_total",
			Help:      "Draw rounds finished, by outcome.",
		}, []string{"outcome"}),
		drawsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_rejected_total",
			Help:      "Draw start requests rejected, by reason.",
		}, []string{"reason"}),
		groupsGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_generated_total",
			Help:      "Groups produced by grouping runs.",
		}),
		namesLoaded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "names_loaded_total",
			Help:      "Names parsed into sessions, by source.",
		}, []string{"source"}),
		sessionsOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Sessions currently held in memory.",
		}),
	}
}

func (r *Recorder) DrawStarted() { r.drawsStarted.Inc() }
func (r *Recorder) DrawFinished(outcome string) { r.drawsFinished.WithLabelValues(outcome).Inc() }
func (r *Recorder) DrawRejected(reason string) { r.drawsRejected.WithLabelValues(reason).Inc() }
func (r *Recorder) GroupsGenerated(groups int) { r.groupsGenerated.Add(float64(groups)) }
func (r *Recorder) NamesLoaded(source string, n int) { r.namesLoaded.WithLabelValues(source).Add(float64(n)) }
func (r *Recorder) SessionsOpen(delta int) { r.sessionsOpen.Add(float64(delta)) }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
