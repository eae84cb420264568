// Package metrics exposes protocol counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vovakirdan/mumblebot/internal/core"
	"github.com/vovakirdan/mumblebot/internal/proto"
)

const namespace = "mumble"

// Metrics implements core.Metrics on Prometheus collectors.
type Metrics struct {
	packetsReceived *prometheus.CounterVec
	packetsSent     *prometheus.CounterVec
	commands        *prometheus.CounterVec
	pingsSkipped    prometheus.Counter
}

var _ core.Metrics = (*Metrics)(nil)

// New registers the collectors on reg. A nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Total number of decoded packets received from the server",
		}, []string{"type"}),

		packetsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Total number of packets written to the server",
		}, []string{"type"}),

		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of correlated commands by outcome",
		}, []string{"command", "outcome"}),

		pingsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pings_skipped_total",
			Help:      "Heartbeat ticks dropped because the previous ping was still in flight",
		}),
	}
}

func (m *Metrics) PacketReceived(t proto.MessageType) {
	m.packetsReceived.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) PacketSent(t proto.MessageType) {
	m.packetsSent.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) CommandResolved(command string, outcome core.Outcome) {
	m.commands.WithLabelValues(command, outcome.String()).Inc()
}

func (m *Metrics) PingSkipped() {
	m.pingsSkipped.Inc()
}
