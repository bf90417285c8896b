package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ghostsignal_ws_connections",
		Help: "Current number of active websocket subscribers",
	})
	MessagesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostsignal_messages_sent_total",
		Help: "Total number of messages accepted by the store",
	})
	BandwidthBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostsignal_bandwidth_bytes_total",
		Help: "Total payload bytes accepted by the store",
	})
	AuthFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostsignal_auth_failures_total",
		Help: "Total number of failed register/login attempts",
	})
	MediaDestroyedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ghostsignal_media_destroyed_total",
		Help: "Total number of ephemeral attachments destroyed after reveal",
	})
)

func init() {
	prometheus.MustRegister(WsConnections, MessagesSentTotal, BandwidthBytesTotal, AuthFailuresTotal, MediaDestroyedTotal)
}

// CounterValue reads the current value of a counter. The admin projection
// uses this to report totals without keeping a parallel tally.
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil || m.Counter == nil {
		return 0
	}
	return m.Counter.GetValue()
}
