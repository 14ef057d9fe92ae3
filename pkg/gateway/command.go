// Package gateway decodes inbound command lines, dispatches them to the
// actuators and sensors, and encodes the outbound event lines.
package gateway

import (
	"encoding/json"
	"errors"
	"math"
)

var errNotObject = errors.New("command is not a JSON object")

// Kind identifies an accepted command.
type Kind int

const (
	KindNone Kind = iota
	KindMove
	KindReadSensors
	KindEmergencyStop
	KindSetRelay
)

var kindNames = map[string]Kind{
	"move_servo":     KindMove,
	"read_sensors":   KindReadSensors,
	"emergency_stop": KindEmergencyStop,
	"set_relay":      KindSetRelay,
}

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move_servo"
	case KindReadSensors:
		return "read_sensors"
	case KindEmergencyStop:
		return "emergency_stop"
	case KindSetRelay:
		return "set_relay"
	default:
		return "none"
	}
}

// Status is the outcome of decoding a line.
type Status int

const (
	// StatusValid means Command holds a command to dispatch.
	StatusValid Status = iota
	// StatusMalformed means the line was not a command object.
	StatusMalformed
	// StatusUnknownKind means the line decoded but named no known command.
	StatusUnknownKind
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusMalformed:
		return "malformed"
	case StatusUnknownKind:
		return "unknown"
	default:
		return "invalid"
	}
}

// Command is a decoded command. Fields not used by Kind are zero.
type Command struct {
	Kind    Kind
	Channel int
	Angle   int
	Relay   int
	On      bool
}

// Decoded is the result of Decode. Only StatusValid carries a Command.
type Decoded struct {
	Status  Status
	Command Command
	// Name is the raw command name, set for StatusUnknownKind.
	Name string
	// Err is the parse error, set for StatusMalformed.
	Err error
}

// Decode parses one command line. Keys match exactly. Only the fields the
// named command uses are read; a missing or wrongly typed field reads as zero
// and any other field is ignored.
func Decode(line []byte) Decoded {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Decoded{Status: StatusMalformed, Err: err}
	}
	if fields == nil {
		return Decoded{Status: StatusMalformed, Err: errNotObject}
	}

	var name string
	if err := json.Unmarshal(fields["cmd"], &name); err != nil || name == "" {
		return Decoded{Status: StatusUnknownKind}
	}
	kind, ok := kindNames[name]
	if !ok {
		return Decoded{Status: StatusUnknownKind, Name: name}
	}

	cmd := Command{Kind: kind}
	switch kind {
	case KindMove:
		cmd.Channel = intField(fields, "servo")
		cmd.Angle = intField(fields, "angle")
	case KindSetRelay:
		cmd.Relay = intField(fields, "relay")
		cmd.On = boolField(fields, "on")
	}
	return Decoded{Status: StatusValid, Command: cmd}
}

func intField(fields map[string]json.RawMessage, key string) int {
	var f float64
	if err := json.Unmarshal(fields[key], &f); err != nil {
		return 0
	}
	return toInt(f)
}

func boolField(fields map[string]json.RawMessage, key string) bool {
	var b bool
	if err := json.Unmarshal(fields[key], &b); err != nil {
		return false
	}
	return b
}

// toInt truncates toward zero and saturates at the int32 range, so absurd
// values stay out of range instead of wrapping into it.
func toInt(f float64) int {
	switch {
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int(f)
	}
}
