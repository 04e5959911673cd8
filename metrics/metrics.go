// Package metrics exports Prometheus counters for editor activity.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/meikuraledutech/flowboard"
)

// Recorder holds the editor metrics. Each Recorder owns its registry so
// tests can create as many as they like.
type Recorder struct {
	Registry *prometheus.Registry

	commands *prometheus.CounterVec
	editors  prometheus.Gauge
	saves    *prometheus.CounterVec
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowboard_commands_total",
				Help: "Editor commands dispatched, by command and result.",
			},
			[]string{"command", "result"},
		),
		editors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "flowboard_open_editors",
				Help: "Diagrams currently held in memory.",
			},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowboard_saves_total",
				Help: "Diagram saves, by result.",
			},
			[]string{"result"},
		),
	}
	r.Registry.MustRegister(r.commands, r.editors, r.saves,
		collectors.NewGoCollector(),
	)
	return r
}

// Hook is an editor dispatch hook counting commands.
func (r *Recorder) Hook(command string, err error) {
	r.commands.WithLabelValues(command, Result(err)).Inc()
}

// EditorOpened counts a diagram loaded into memory.
func (r *Recorder) EditorOpened() { r.editors.Inc() }

// EditorClosed counts a diagram dropped from memory.
func (r *Recorder) EditorClosed() { r.editors.Dec() }

// Saved counts a save attempt.
func (r *Recorder) Saved(err error) { r.saves.WithLabelValues(Result(err)).Inc() }

// Result maps an error to a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, flowboard.ErrInvalid):
		return "invalid"
	case errors.Is(err, flowboard.ErrNodeNotFound), errors.Is(err, flowboard.ErrEdgeNotFound):
		return "not_found"
	case errors.Is(err, flowboard.ErrDuplicateID), errors.Is(err, flowboard.ErrEdgeExists):
		return "conflict"
	case errors.Is(err, flowboard.ErrInvalidConnection):
		return "bad_connection"
	case errors.Is(err, flowboard.ErrNoSelection):
		return "no_selection"
	}
	return "error"
}
