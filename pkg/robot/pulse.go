package robot

import (
	"github.com/charmbracelet/log"
)

// PWMDriver is the hardware holding each channel's duty cycle. A channel's
// output goes high at step on and low at step off.
type PWMDriver interface {
	SetPWM(channel int, on, off uint16) error
}

// PulseGenerator maps logical angles to pulse widths and drives the channels.
type PulseGenerator struct {
	driver      PWMDriver
	pwm         PWMConfig
	calibration Calibration
	logger      *log.Logger
}

// NewPulseGenerator creates a generator over driver. The calibration is
// copied and never changes afterwards.
func NewPulseGenerator(driver PWMDriver, pwm PWMConfig, cal Calibration, logger *log.Logger) *PulseGenerator {
	return &PulseGenerator{
		driver:      driver,
		pwm:         pwm,
		calibration: cal,
		logger:      logger,
	}
}

// Steps returns the off step for a channel at angle. The angle is clamped;
// ok is false for an unknown channel.
func (g *PulseGenerator) Steps(index, angle int) (steps uint16, ok bool) {
	if !ValidChannel(index) {
		return 0, false
	}
	return g.pwm.Steps(g.calibration[index].PulseUs(angle)), true
}

// NeutralSteps returns the off step of a channel's neutral pulse.
func (g *PulseGenerator) NeutralSteps(index int) (steps uint16, ok bool) {
	if !ValidChannel(index) {
		return 0, false
	}
	return g.pwm.Steps(g.calibration[index].NeutralUs), true
}

// SetChannelAngle drives a channel to angle. Unknown channels are ignored.
func (g *PulseGenerator) SetChannelAngle(index, angle int) {
	steps, ok := g.Steps(index, angle)
	if !ok {
		g.logger.Debug("ignoring unknown channel", "channel", index)
		return
	}
	g.write(index, steps)
}

// SetAllNeutral drives every channel to its neutral pulse.
func (g *PulseGenerator) SetAllNeutral() {
	for i := range g.calibration {
		steps, _ := g.NeutralSteps(i)
		g.write(i, steps)
	}
}

func (g *PulseGenerator) write(index int, steps uint16) {
	if err := g.driver.SetPWM(index, 0, steps); err != nil {
		g.logger.Warn("pwm write failed", "channel", index, "steps", steps, "err", err)
	}
}
