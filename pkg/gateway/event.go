package gateway

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gwillem/armguard/pkg/sensor"
)

// EventKind identifies an outbound event.
type EventKind string

const (
	EventSensors       EventKind = "sensors"
	EventEmergencyStop EventKind = "emergency_stop"
)

// Event is an outbound message. Sensors is only used by EventSensors.
type Event struct {
	Kind    EventKind
	Sensors sensor.Snapshot
}

// Field order is part of the line format.
type sensorsEvent struct {
	Event    string                    `json:"event"`
	Moisture [sensor.MoistureCount]int `json:"moisture"`
	Light    int                       `json:"light"`
}

type ackEvent struct {
	Event string `json:"event"`
}

// Encode renders an event as a single JSON line without the newline.
func Encode(ev Event) ([]byte, error) {
	switch ev.Kind {
	case EventSensors:
		return json.Marshal(sensorsEvent{
			Event:    string(ev.Kind),
			Moisture: ev.Sensors.Moisture,
			Light:    ev.Sensors.Light,
		})
	case EventEmergencyStop:
		return json.Marshal(ackEvent{Event: string(ev.Kind)})
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// Sink receives outbound events.
type Sink interface {
	Emit(ev Event) error
}

// LineSink writes each event as one line to w.
type LineSink struct {
	w io.Writer
}

// NewLineSink creates a sink writing to w.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

// Emit implements Sink.
func (s *LineSink) Emit(ev Event) error {
	line, err := Encode(ev)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// MultiSink emits to every sink in order and returns the first error.
type MultiSink []Sink

// Emit implements Sink.
func (m MultiSink) Emit(ev Event) error {
	var first error
	for _, s := range m {
		if err := s.Emit(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
