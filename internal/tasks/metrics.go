package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/desertthunder/listkit/internal/journal"
	"github.com/desertthunder/listkit/internal/services"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts provider traffic and journal activity.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	calls      *prometheus.CounterVec
	retries    *prometheus.CounterVec
	failures   *prometheus.CounterVec
	itemsAdded prometheus.Counter
	undoJobs   *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg. A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listkit_provider_calls_total",
			Help: "Provider calls issued, one per attempt.",
		}, []string{"op"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listkit_provider_retries_total",
			Help: "Failed provider attempts that were retried.",
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listkit_provider_failures_total",
			Help: "Provider calls that failed after retries, by status code.",
		}, []string{"op", "code"}),
		itemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "listkit_items_added_total",
			Help: "Items added to playlists by bulk operations.",
		}),
		undoJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "listkit_undo_jobs_total",
			Help: "Inverse jobs run by undo, by kind and result.",
		}, []string{"kind", "result"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.calls, m.retries, m.failures, m.itemsAdded, m.undoJobs} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) call(op string) {
	if m != nil {
		m.calls.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) retry(op string) {
	if m != nil {
		m.retries.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) failure(op string, err error) {
	if m != nil {
		m.failures.WithLabelValues(op, failureCode(err)).Inc()
	}
}

func (m *Metrics) itemAdded() {
	if m != nil {
		m.itemsAdded.Inc()
	}
}

// ObserveUndo counts one inverse job. It has the shape of [journal.WithInverseHook].
func (m *Metrics) ObserveUndo(job journal.Job, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.undoJobs.WithLabelValues(string(job.Kind), result).Inc()
}

// WriteTextfile writes every metric gathered from g to path in the text exposition format.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func failureCode(err error) string {
	if f, ok := services.AsFailure(err); ok {
		return strconv.Itoa(f.StatusCode)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}
