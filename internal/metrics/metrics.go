// Package metrics exposes streameye's operational counters as Prometheus
// collectors, grounded on warpcomdev/asicamera2's
// internal/driver/jpeg/pool.go metric shapes (per-camera counters and
// histograms), generalized here to a single fan-out server instead of a
// per-camera compression farm.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector streameye reports. The zero value is not
// valid; use New.
type Metrics struct {
	framesPublished prometheus.Counter
	framesSent      *prometheus.CounterVec
	framesDropped   *prometheus.CounterVec
	sessionsOpened  prometheus.Counter
	sessionsActive  prometheus.Gauge
	writeErrors     prometheus.Counter
	discards        prometheus.Counter
}

// New registers and returns streameye's collectors against the default
// Prometheus registry.
func New() *Metrics {
	return &Metrics{
		framesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streameye_frames_published_total",
			Help: "Frames published to the shared frame slot by the producer.",
		}),
		framesSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streameye_frames_sent_total",
			Help: "Frames written to clients.",
		}, []string{"camera"}),
		framesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streameye_frames_dropped_total",
			Help: "Frames a client missed because it was still writing the previous one.",
		}, []string{"camera"}),
		sessionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streameye_sessions_opened_total",
			Help: "Client sessions accepted since process start.",
		}),
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streameye_sessions_active",
			Help: "Client sessions currently streaming.",
		}),
		writeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streameye_write_errors_total",
			Help: "Client write failures that closed a session.",
		}),
		discards: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streameye_input_discards_total",
			Help: "Times the input accumulator was discarded for exceeding JPEG_BUF_LEN.",
		}),
	}
}

// FramePublished records one frame accepted into the shared frame slot.
func (m *Metrics) FramePublished() { m.framesPublished.Inc() }

// FramesSent implements session.Metrics.
func (m *Metrics) FramesSent(camera string) { m.framesSent.WithLabelValues(camera).Inc() }

// FramesDropped implements session.Metrics.
func (m *Metrics) FramesDropped(camera string, n int) {
	m.framesDropped.WithLabelValues(camera).Add(float64(n))
}

// SessionOpened implements session.Metrics.
func (m *Metrics) SessionOpened() {
	m.sessionsOpened.Inc()
	m.sessionsActive.Inc()
}

// SessionClosed implements session.Metrics.
func (m *Metrics) SessionClosed() { m.sessionsActive.Dec() }

// WriteError implements session.Metrics.
func (m *Metrics) WriteError() { m.writeErrors.Inc() }

// InputDiscarded records one oversized-accumulator discard (spec section
// 4.1's overflow policy).
func (m *Metrics) InputDiscarded() { m.discards.Inc() }

// Serve runs a /metrics HTTP listener on addr until ctx is cancelled. It
// is only started when the operator opts in via -metrics-addr, since the
// core fan-out protocol itself never uses net/http.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
