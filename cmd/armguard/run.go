package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"

	"github.com/gwillem/armguard/pkg/control"
	"github.com/gwillem/armguard/pkg/gateway"
	"github.com/gwillem/armguard/pkg/hw"
	"github.com/gwillem/armguard/pkg/link"
	"github.com/gwillem/armguard/pkg/robot"
	"github.com/gwillem/armguard/pkg/sensor"
	"github.com/gwillem/armguard/pkg/telemetry"
)

type RunCommand struct {
	Port         string `short:"p" long:"port" description:"Serial port of the command link (prompted when omitted)"`
	Baud         int    `long:"baud" description:"Override the configured baud rate"`
	Sim          bool   `long:"sim" description:"Simulated hardware; commands on stdin, events on stdout"`
	MetricsAddr  string `long:"metrics-addr" description:"Serve Prometheus metrics on this address, e.g. :9100"`
	MQTTBroker   string `long:"mqtt-broker" description:"Mirror events to this broker, e.g. tcp://localhost:1883"`
	MQTTTopic    string `long:"mqtt-topic" default:"armguard" description:"Topic prefix for mirrored events"`
	MQTTUser     string `long:"mqtt-user" description:"MQTT username"`
	MQTTPassword string `long:"mqtt-password" env:"ARMGUARD_MQTT_PASSWORD" description:"MQTT password"`
}

// hardware is what the loop drives, plus the stream carrying commands and
// events.
type hardware struct {
	pwm    robot.PWMDriver
	relays robot.RelayDriver
	analog sensor.AnalogReader
	in     io.Reader
	out    io.Writer
	close  func()
}

func (c *RunCommand) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(os.Stderr)

	cfg, err := loadConfig(c.Sim)
	if err != nil {
		return err
	}

	// openHardware parks the arm at neutral before it prompts for a port, and
	// the loop below writes neutral again once everything is wired.
	hwr, err := c.openHardware(cfg, logger)
	if err != nil {
		return err
	}
	defer hwr.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	sinks := gateway.MultiSink{gateway.NewLineSink(hwr.out)}
	if c.MQTTBroker != "" {
		client, err := telemetry.ConnectMQTT(ctx, telemetry.MQTTConfig{
			Broker:      c.MQTTBroker,
			TopicPrefix: c.MQTTTopic,
			Username:    c.MQTTUser,
			Password:    c.MQTTPassword,
		}, logger.WithPrefix("mqtt"))
		if err != nil {
			logger.Warn("event mirror disabled", "err", err)
		} else {
			defer client.Disconnect(250)
			sinks = append(sinks, telemetry.NewMQTTSink(client, c.MQTTTopic))
		}
	}

	if c.MetricsAddr != "" {
		srv := serveMetrics(c.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	loop := control.New(control.Options{
		Config:  cfg,
		PWM:     hwr.pwm,
		Relays:  hwr.relays,
		Analog:  hwr.analog,
		Sink:    sinks,
		Metrics: metrics,
		Logger:  logger,
	})

	frames := make(chan link.Frame, 16)
	go func() {
		defer close(frames)
		if err := link.Pump(ctx, link.NewReader(hwr.in, link.MaxFrame), frames); err != nil && ctx.Err() == nil {
			logger.Error("command link failed", "err", err)
		}
	}()

	if err := loop.Run(ctx, frames); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *RunCommand) openHardware(cfg *robot.Config, logger *log.Logger) (*hardware, error) {
	if c.Sim {
		logger.Info("using simulated hardware, reading commands from stdin")
		return &hardware{
			pwm:    &hw.SimPWM{},
			relays: &hw.SimRelays{},
			analog: sensor.NewSimReader(512, 8),
			in:     os.Stdin,
			out:    os.Stdout,
			close:  func() {},
		}, nil
	}

	pwm, err := hw.OpenPCA9685(cfg.PWM)
	if err != nil {
		return nil, err
	}
	relays, err := hw.OpenGPIORelays(cfg.Relays)
	if err != nil {
		pwm.Close()
		return nil, err
	}
	control.Neutralize(cfg, pwm, relays, logger)
	logger.Info("arm parked at neutral")

	portName := c.Port
	if portName == "" {
		portName = cfg.Serial.Port
	}
	if portName == "" {
		if portName, err = selectPort(); err != nil {
			pwm.Close()
			return nil, err
		}
	}
	baud := cfg.Serial.BaudRate
	if c.Baud > 0 {
		baud = c.Baud
	}
	port, err := link.OpenSerial(portName, baud)
	if err != nil {
		pwm.Close()
		return nil, err
	}
	logger.Info("command link open", "port", portName, "baud", baud)

	return &hardware{
		pwm:    pwm,
		relays: relays,
		analog: sensor.NewIIOReader(afero.NewOsFs(), cfg.Sensors.IIODevice),
		in:     port,
		out:    port,
		close: func() {
			port.Close()
			pwm.Close()
		},
	}, nil
}

func selectPort() (string, error) {
	ports, err := link.ListPorts()
	if err != nil {
		return "", err
	}
	switch {
	case len(ports) == 0:
		return "", errors.New("no serial ports found")
	case len(ports) == 1:
		return ports[0], nil
	case !isatty.IsTerminal(os.Stdin.Fd()):
		return "", fmt.Errorf("%d serial ports found, pick one with --port", len(ports))
	}

	options := make([]huh.Option[string], 0, len(ports))
	for _, p := range ports {
		options = append(options, huh.NewOption(p, p))
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the command link on?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return port, nil
}

func serveMetrics(addr string, g prometheus.Gatherer, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
