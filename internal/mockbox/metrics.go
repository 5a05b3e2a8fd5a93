package mockbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the mock backend collectors.
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	Rejected          prometheus.Counter
	Boxes             prometheus.Gauge
	FramesIn          prometheus.Counter
	FramesOut         prometheus.Counter
	FramesDropped     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "gobox_mockbox_connections_active",
			Help: "Open websocket connections",
		}),
		ConnectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_mockbox_connections_total",
			Help: "Accepted websocket connections",
		}),
		Rejected: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_mockbox_connections_rejected_total",
			Help: "Connect requests rejected before the upgrade",
		}),
		Boxes: f.NewGauge(prometheus.GaugeOpts{
			Name: "gobox_mockbox_boxes",
			Help: "Boxes known by fingerprint",
		}),
		FramesIn: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_mockbox_frames_in_total",
			Help: "Frames received from clients",
		}),
		FramesOut: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_mockbox_frames_out_total",
			Help: "Frames queued to clients",
		}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "gobox_mockbox_frames_dropped_total",
			Help: "Frames dropped because a client could not keep up",
		}),
	}
}
