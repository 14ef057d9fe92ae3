// Package telemetry exposes the arm's activity as Prometheus metrics and
// mirrors outbound events to an MQTT broker.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gwillem/armguard/pkg/gateway"
	"github.com/gwillem/armguard/pkg/robot"
)

const namespace = "armguard"

// Metrics holds the collectors updated by the control loop.
type Metrics struct {
	Commands      *prometheus.CounterVec
	Dropped       *prometheus.CounterVec
	Events        *prometheus.CounterVec
	WatchdogTrips prometheus.Counter
	Safe          prometheus.Gauge
	PulseSteps    *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Accepted commands by kind.",
		}, []string{"kind"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Inbound frames dropped by reason.",
		}, []string{"reason"}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Outbound events by kind.",
		}, []string{"event"}),
		WatchdogTrips: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchdog_trips_total",
			Help:      "Times the watchdog forced the safe state.",
		}),
		Safe: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "safe_state",
			Help:      "1 while the arm is held in its safe state.",
		}),
		PulseSteps: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pulse_steps",
			Help:      "Last PWM off step written per channel.",
		}, []string{"channel"}),
	}
}

// ObserveFrame counts the outcome of one decoded frame.
func (m *Metrics) ObserveFrame(d gateway.Decoded) {
	switch d.Status {
	case gateway.StatusValid:
		m.Commands.WithLabelValues(d.Command.Kind.String()).Inc()
	default:
		m.Dropped.WithLabelValues(d.Status.String()).Inc()
	}
}

// ObserveOverflow counts a frame discarded for length.
func (m *Metrics) ObserveOverflow() {
	m.Dropped.WithLabelValues(gateway.StatusMalformed.String()).Inc()
}

// ObserveState records the controller state.
func (m *Metrics) ObserveState(s robot.State) {
	if s == robot.StateSafe {
		m.Safe.Set(1)
		return
	}
	m.Safe.Set(0)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type instrumentedPWM struct {
	next    robot.PWMDriver
	metrics *Metrics
}

// InstrumentPWM records every write to next in the pulse_steps gauge.
func InstrumentPWM(next robot.PWMDriver, m *Metrics) robot.PWMDriver {
	return &instrumentedPWM{next: next, metrics: m}
}

func (d *instrumentedPWM) SetPWM(channel int, on, off uint16) error {
	if err := d.next.SetPWM(channel, on, off); err != nil {
		return err
	}
	d.metrics.PulseSteps.WithLabelValues(strconv.Itoa(channel)).Set(float64(off))
	return nil
}

type countingSink struct {
	next    gateway.Sink
	metrics *Metrics
}

// CountSink counts every event passed to next.
func CountSink(next gateway.Sink, m *Metrics) gateway.Sink {
	return &countingSink{next: next, metrics: m}
}

func (s *countingSink) Emit(ev gateway.Event) error {
	s.metrics.Events.WithLabelValues(string(ev.Kind)).Inc()
	return s.next.Emit(ev)
}
