// Package control runs the arm's single-threaded control loop: inbound
// frames, the safety watchdog and periodic sensor reports all take turns on
// one goroutine.
package control

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gwillem/armguard/pkg/gateway"
	"github.com/gwillem/armguard/pkg/link"
	"github.com/gwillem/armguard/pkg/robot"
	"github.com/gwillem/armguard/pkg/sensor"
	"github.com/gwillem/armguard/pkg/telemetry"
	"github.com/gwillem/armguard/pkg/watchdog"
)

// Options wires the loop to its hardware and outputs.
type Options struct {
	Config  *robot.Config
	PWM     robot.PWMDriver
	Relays  robot.RelayDriver
	Analog  sensor.AnalogReader
	Sink    gateway.Sink
	Metrics *telemetry.Metrics
	Logger  *log.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Status is a point-in-time view of the loop.
type Status struct {
	State       robot.State
	Relays      [robot.RelayCount]bool
	LastCommand time.Time
	Tripped     bool
}

// Loop owns the controller and everything that touches it.
type Loop struct {
	cfg     *robot.Config
	ctrl    *robot.Controller
	gw      *gateway.Gateway
	wd      *watchdog.Watchdog
	metrics *telemetry.Metrics
	logger  *log.Logger
	now     func() time.Time
}

// Neutralize drives every channel to neutral and switches every relay off
// without building a loop. It parks the arm while the rest of the process
// starts up.
func Neutralize(cfg *robot.Config, pwm robot.PWMDriver, relays robot.RelayDriver, logger *log.Logger) {
	pulses := robot.NewPulseGenerator(pwm, cfg.PWM, cfg.Calibration, logger.WithPrefix("pwm"))
	robot.NewController(pulses, robot.NewRelayBank(relays, logger.WithPrefix("relay"))).InitializeToNeutral()
}

// New builds the loop and drives the arm to neutral before returning, so no
// command can be handled before the arm is at rest.
func New(opts Options) *Loop {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}
	cfg := opts.Config
	logger := opts.Logger

	pulses := robot.NewPulseGenerator(
		telemetry.InstrumentPWM(opts.PWM, opts.Metrics),
		cfg.PWM,
		cfg.Calibration,
		logger.WithPrefix("pwm"),
	)
	relays := robot.NewRelayBank(opts.Relays, logger.WithPrefix("relay"))
	ctrl := robot.NewController(pulses, relays)
	ctrl.InitializeToNeutral()
	opts.Metrics.ObserveState(ctrl.State())

	sensors := sensor.NewSource(opts.Analog, cfg.Sensors)
	sink := telemetry.CountSink(opts.Sink, opts.Metrics)
	gw := gateway.New(ctrl, sensors, sink, logger.WithPrefix("gateway"), opts.Clock())

	return &Loop{
		cfg:     cfg,
		ctrl:    ctrl,
		gw:      gw,
		wd:      watchdog.New(cfg.Safety.CommandTimeout()),
		metrics: opts.Metrics,
		logger:  logger,
		now:     opts.Clock,
	}
}

// HandleFrame processes one inbound frame received at now. The watchdog is
// checked first so a gap that ended with this frame still forces the safe
// state before the frame is acted on.
func (l *Loop) HandleFrame(f link.Frame, now time.Time) gateway.Decoded {
	l.CheckWatchdog(now)

	if f.Overflow {
		l.logger.Debug("dropping oversized frame", "max", link.MaxFrame)
		l.metrics.ObserveOverflow()
		return gateway.Decoded{Status: gateway.StatusMalformed}
	}

	d := l.gw.HandleLine(f.Line, now)
	l.metrics.ObserveFrame(d)
	l.metrics.ObserveState(l.ctrl.State())
	return d
}

// CheckWatchdog applies the watchdog rule at now and reports whether it
// forced the safe state.
func (l *Loop) CheckWatchdog(now time.Time) bool {
	last := l.gw.LastCommand()
	if !l.wd.Check(now, last) {
		return false
	}
	l.logger.Warn("no command received, forcing safe state",
		"silence", now.Sub(last).Round(time.Millisecond), "timeout", l.wd.Timeout())
	l.ctrl.EmergencyStop()
	l.metrics.WatchdogTrips.Inc()
	l.metrics.ObserveState(l.ctrl.State())
	return true
}

// ReportSensors emits an unsolicited sensor event.
func (l *Loop) ReportSensors() {
	l.gw.ReportSensors()
}

// Status returns the current state of the loop.
func (l *Loop) Status() Status {
	last := l.gw.LastCommand()
	return Status{
		State:       l.ctrl.State(),
		Relays:      l.ctrl.Relays(),
		LastCommand: last,
		Tripped:     l.wd.Tripped(last),
	}
}

// Run processes frames and timers until ctx is done, then forces the safe
// state. A closed frames channel means the link is gone; the watchdog keeps
// running.
func (l *Loop) Run(ctx context.Context, frames <-chan link.Frame) error {
	wdTicker := time.NewTicker(l.cfg.Safety.WatchdogPeriod())
	defer wdTicker.Stop()

	var sensorC <-chan time.Time
	if interval := l.cfg.Safety.SensorInterval(); interval > 0 {
		sensorTicker := time.NewTicker(interval)
		defer sensorTicker.Stop()
		sensorC = sensorTicker.C
	}

	l.logger.Info("control loop started",
		"timeout", l.cfg.Safety.CommandTimeout(),
		"watchdog_period", l.cfg.Safety.WatchdogPeriod(),
		"sensor_interval", l.cfg.Safety.SensorInterval())

	for {
		select {
		case <-ctx.Done():
			l.Shutdown()
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				l.logger.Warn("command link closed")
				frames = nil
				continue
			}
			l.HandleFrame(f, l.now())
		case <-wdTicker.C:
			l.CheckWatchdog(l.now())
		case <-sensorC:
			l.ReportSensors()
		}
	}
}

// Shutdown forces the safe state. Run calls it when its context ends.
func (l *Loop) Shutdown() {
	l.ctrl.EmergencyStop()
	l.metrics.ObserveState(l.ctrl.State())
	l.logger.Info("control loop stopped, arm at neutral")
}
