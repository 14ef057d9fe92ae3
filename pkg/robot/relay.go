package robot

import (
	"github.com/charmbracelet/log"
)

// RelayDriver switches a relay output.
type RelayDriver interface {
	SetRelay(index int, on bool) error
}

// RelayBank tracks and drives the relay outputs.
type RelayBank struct {
	driver RelayDriver
	states [RelayCount]bool
	logger *log.Logger
}

// NewRelayBank creates a bank over driver. No output is written until the
// first call.
func NewRelayBank(driver RelayDriver, logger *log.Logger) *RelayBank {
	return &RelayBank{driver: driver, logger: logger}
}

// Set switches one relay. Unknown relays are ignored.
func (b *RelayBank) Set(index int, on bool) bool {
	if index < 0 || index >= RelayCount {
		b.logger.Debug("ignoring unknown relay", "relay", index)
		return false
	}
	b.write(index, on)
	return true
}

// AllOff de-energizes every relay.
func (b *RelayBank) AllOff() {
	for i := range b.states {
		b.write(i, false)
	}
}

// States returns the last commanded state of each relay.
func (b *RelayBank) States() [RelayCount]bool {
	return b.states
}

func (b *RelayBank) write(index int, on bool) {
	b.states[index] = on
	if err := b.driver.SetRelay(index, on); err != nil {
		b.logger.Warn("relay write failed", "relay", index, "on", on, "err", err)
	}
}
