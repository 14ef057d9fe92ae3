package gateway

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/gwillem/armguard/pkg/sensor"
)

// Actuators is the part of the arm controller the gateway drives.
type Actuators interface {
	MoveChannel(index, angle int)
	EmergencyStop()
	SetRelay(index int, on bool)
}

// Sensors produces sensor snapshots.
type Sensors interface {
	ReadAll() sensor.Snapshot
}

// Gateway dispatches decoded commands and remembers when the last one was
// accepted.
type Gateway struct {
	actuators Actuators
	sensors   Sensors
	sink      Sink
	logger    *log.Logger

	lastCommand time.Time
}

// New creates a gateway. The last-command timestamp starts at boot.
func New(actuators Actuators, sensors Sensors, sink Sink, logger *log.Logger, boot time.Time) *Gateway {
	return &Gateway{
		actuators:   actuators,
		sensors:     sensors,
		sink:        sink,
		logger:      logger,
		lastCommand: boot,
	}
}

// LastCommand returns when the last command was accepted.
func (g *Gateway) LastCommand() time.Time {
	return g.lastCommand
}

// HandleLine decodes and dispatches one line received at now. Malformed
// lines and unknown commands are dropped without touching any state.
func (g *Gateway) HandleLine(line []byte, now time.Time) Decoded {
	d := Decode(line)
	switch d.Status {
	case StatusValid:
		g.Dispatch(d.Command, now)
	case StatusMalformed:
		g.logger.Debug("dropping malformed frame", "err", d.Err, "len", len(line))
	case StatusUnknownKind:
		g.logger.Debug("dropping unknown command", "cmd", d.Name)
	}
	return d
}

// Dispatch executes a valid command and records now as the last-command
// time.
func (g *Gateway) Dispatch(cmd Command, now time.Time) {
	switch cmd.Kind {
	case KindMove:
		g.actuators.MoveChannel(cmd.Channel, cmd.Angle)
	case KindSetRelay:
		g.actuators.SetRelay(cmd.Relay, cmd.On)
	case KindReadSensors:
		g.ReportSensors()
	case KindEmergencyStop:
		g.actuators.EmergencyStop()
		g.emit(Event{Kind: EventEmergencyStop})
	default:
		return
	}
	g.touch(now)
}

// ReportSensors reads every sensor and emits a sensors event. It does not
// count as a command.
func (g *Gateway) ReportSensors() {
	g.emit(Event{Kind: EventSensors, Sensors: g.sensors.ReadAll()})
}

func (g *Gateway) emit(ev Event) {
	if err := g.sink.Emit(ev); err != nil {
		g.logger.Warn("emit failed", "event", ev.Kind, "err", err)
	}
}

// touch never moves the timestamp backwards.
func (g *Gateway) touch(now time.Time) {
	if now.After(g.lastCommand) {
		g.lastCommand = now
	}
}
