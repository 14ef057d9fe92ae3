package hw

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/gwillem/armguard/pkg/robot"
)

// GPIORelays switches relays wired to GPIO pins. A high level energizes the
// relay.
type GPIORelays struct {
	pins [robot.RelayCount]gpio.PinOut
}

// OpenGPIORelays looks up each named pin. An empty name leaves that relay
// unconnected.
func OpenGPIORelays(names [robot.RelayCount]string) (*GPIORelays, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	r := &GPIORelays{}
	for i, name := range names {
		if name == "" {
			continue
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("relay %d: unknown pin %q", i, name)
		}
		r.pins[i] = pin
	}
	return r, nil
}

// SetRelay implements robot.RelayDriver.
func (r *GPIORelays) SetRelay(index int, on bool) error {
	pin := r.pins[index]
	if pin == nil {
		return nil
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	return pin.Out(level)
}
