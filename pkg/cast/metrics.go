package cast

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	sent        prometheus.Counter
	dropped     prometheus.Counter
	sendErrors  prometheus.Counter
	connections prometheus.GaugeFunc
}

func newMetrics(reg prometheus.Registerer, kind string, connections func() float64) *metrics {
	labels := prometheus.Labels{"sink": kind}
	m := &metrics{
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "caster_frames_sent_total",
			Help:        "Number of frames delivered to the active sink.",
			ConstLabels: labels,
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "caster_frames_dropped_total",
			Help:        "Number of frames dropped by the rate limiter.",
			ConstLabels: labels,
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "caster_send_errors_total",
			Help:        "Number of failed sink sends.",
			ConstLabels: labels,
		}),
		connections: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "caster_connections",
			Help:        "Receivers currently attached to the sink.",
			ConstLabels: labels,
		}, connections),
	}
	if reg != nil {
		reg.MustRegister(m.sent, m.dropped, m.sendErrors, m.connections)
	}
	return m
}
