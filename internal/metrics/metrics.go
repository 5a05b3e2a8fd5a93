// Package metrics holds the Prometheus collectors of the gobox client.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all client collectors.
type Metrics struct {
	// Transport
	FramesReceived    *prometheus.CounterVec
	BytesReceived     prometheus.Counter
	FramesSent        prometheus.Counter
	SendsDropped      prometheus.Counter
	StatusTransitions *prometheus.CounterVec

	// Controller
	SessionsActive prometheus.Gauge
	Activations    prometheus.Counter
	FitFailures    prometheus.Counter
}

// New registers the client collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobox_transport_frames_received_total",
				Help: "Frames received from the backend by frame kind",
			},
			[]string{"kind"},
		),
		BytesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_transport_bytes_received_total",
			Help: "Payload bytes received from the backend",
		}),
		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_transport_frames_sent_total",
			Help: "Frames written to the backend",
		}),
		SendsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_transport_sends_dropped_total",
			Help: "Sends ignored because the connection was not open",
		}),
		StatusTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobox_transport_status_transitions_total",
				Help: "Connection status transitions by target status",
			},
			[]string{"status"},
		),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "gobox_sessions_active",
			Help: "Terminal sessions currently active",
		}),
		Activations: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_session_activations_total",
			Help: "Controller activations",
		}),
		FitFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_emulator_fit_failures_total",
			Help: "Emulator fit attempts that failed before layout",
		}),
	}
}

func (m *Metrics) FrameReceived(kind string, n int) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(kind).Inc()
	m.BytesReceived.Add(float64(n))
}

func (m *Metrics) FrameSent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

func (m *Metrics) SendDropped() {
	if m == nil {
		return
	}
	m.SendsDropped.Inc()
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.Activations.Inc()
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

func (m *Metrics) FitFailed() {
	if m == nil {
		return
	}
	m.FitFailures.Inc()
}

// Handler exposes g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes g on addr under /metrics until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
