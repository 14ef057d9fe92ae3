package hw

import (
	"sync"

	"github.com/gwillem/armguard/pkg/robot"
)

// SimPWM records duty cycles instead of driving hardware. It is safe to read
// from another goroutine while the control loop writes.
type SimPWM struct {
	mu     sync.Mutex
	off    [robot.ChannelCount]uint16
	writes int
}

// SetPWM implements robot.PWMDriver. Writes to unknown channels are counted
// but not stored.
func (s *SimPWM) SetPWM(channel int, on, off uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if robot.ValidChannel(channel) {
		s.off[channel] = off
	}
	return nil
}

// Off returns the last off step written to every channel.
func (s *SimPWM) Off() [robot.ChannelCount]uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.off
}

// Writes returns the number of SetPWM calls.
func (s *SimPWM) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// SimRelays records relay states.
type SimRelays struct {
	mu     sync.Mutex
	states [robot.RelayCount]bool
}

// SetRelay implements robot.RelayDriver.
func (s *SimRelays) SetRelay(index int, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[index] = on
	return nil
}

// States returns the relay states.
func (s *SimRelays) States() [robot.RelayCount]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states
}
