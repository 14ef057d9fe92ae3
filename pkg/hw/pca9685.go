// Package hw connects the arm to real or simulated hardware.
package hw

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"

	"github.com/gwillem/armguard/pkg/robot"
)

// PCA9685 drives servo channels through a PCA9685 PWM expander.
type PCA9685 struct {
	bus i2c.BusCloser
	dev *pca9685.Dev
}

// OpenPCA9685 initializes the host drivers, opens the I2C bus and sets the
// PWM frequency.
func OpenPCA9685(cfg robot.PWMConfig) (*PCA9685, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
	}

	dev, err := pca9685.NewI2C(bus, cfg.Address)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open pca9685 at %#x: %w", cfg.Address, err)
	}

	if err := dev.SetPwmFreq(physic.Frequency(cfg.FrequencyHz) * physic.Hertz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("set pwm frequency: %w", err)
	}

	return &PCA9685{bus: bus, dev: dev}, nil
}

// SetPWM implements robot.PWMDriver.
func (p *PCA9685) SetPWM(channel int, on, off uint16) error {
	return p.dev.SetPwm(channel, gpio.Duty(on), gpio.Duty(off))
}

// Close releases the I2C bus. Outputs keep their last duty cycle.
func (p *PCA9685) Close() error {
	return p.bus.Close()
}
