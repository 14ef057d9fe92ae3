package robot

import (
	"errors"
	"fmt"
)

// ErrInvalidPWM is returned for unusable PWM settings.
var ErrInvalidPWM = errors.New("invalid pwm settings")

// PWMConfig describes the PWM expander driving the servos.
type PWMConfig struct {
	FrequencyHz int    `json:"frequency_hz"`
	Resolution  int    `json:"resolution"`
	I2CBus      string `json:"i2c_bus"`
	Address     uint16 `json:"address"`
}

// DefaultPWM returns settings for a PCA9685 at 50 Hz.
func DefaultPWM() PWMConfig {
	return PWMConfig{
		FrequencyHz: 50,
		Resolution:  4096,
		Address:     0x40,
	}
}

// Validate checks the frequency and resolution.
func (p PWMConfig) Validate() error {
	if p.FrequencyHz <= 0 || p.FrequencyHz > 1600 {
		return fmt.Errorf("%w: frequency %d Hz", ErrInvalidPWM, p.FrequencyHz)
	}
	if p.Resolution < 2 || p.Resolution > 1<<16 {
		return fmt.Errorf("%w: resolution %d", ErrInvalidPWM, p.Resolution)
	}
	return nil
}

// PeriodUs returns the length of one PWM period in microseconds.
func (p PWMConfig) PeriodUs() int {
	return 1_000_000 / p.FrequencyHz
}

// Steps converts a pulse width to a duty-cycle step count. The period is
// divided into Resolution steps and the result is truncated, so a pulse is
// never driven longer than requested. Pulses longer than the period saturate
// at the last step.
func (p PWMConfig) Steps(pulseUs int) uint16 {
	if pulseUs <= 0 {
		return 0
	}
	steps := int64(pulseUs) * int64(p.Resolution) * int64(p.FrequencyHz) / 1_000_000
	if top := int64(p.Resolution - 1); steps > top {
		steps = top
	}
	return uint16(steps)
}
