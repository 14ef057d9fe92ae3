package robot

import (
	"errors"
	"fmt"
)

// Angle limits accepted by the pulse mapping.
const (
	MinAngle = 0
	MaxAngle = 180
)

// ErrInvalidCalibration is returned when a channel's bounds are not ordered.
var ErrInvalidCalibration = errors.New("invalid calibration")

// ChannelCalibration holds the pulse bounds of a single servo, in microseconds.
type ChannelCalibration struct {
	MinUs     int `json:"min_us"`
	MaxUs     int `json:"max_us"`
	NeutralUs int `json:"neutral_us"`
}

// Calibration holds the bounds for every channel, indexed by channel.
type Calibration [ChannelCount]ChannelCalibration

// Validate checks that min < neutral < max holds.
func (c ChannelCalibration) Validate() error {
	if c.MinUs <= 0 {
		return fmt.Errorf("%w: min %dus must be positive", ErrInvalidCalibration, c.MinUs)
	}
	if !(c.MinUs < c.NeutralUs && c.NeutralUs < c.MaxUs) {
		return fmt.Errorf("%w: want min < neutral < max, got %d/%d/%d",
			ErrInvalidCalibration, c.MinUs, c.NeutralUs, c.MaxUs)
	}
	return nil
}

// Validate checks every channel.
func (c Calibration) Validate() error {
	for i, ch := range c {
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("channel %d (%s): %w", i, ChannelName(i), err)
		}
	}
	return nil
}

// ClampAngle limits an angle to [MinAngle, MaxAngle].
func ClampAngle(angle int) int {
	if angle < MinAngle {
		return MinAngle
	}
	if angle > MaxAngle {
		return MaxAngle
	}
	return angle
}

// PulseUs maps an angle to a pulse width by linear interpolation between the
// channel bounds. Out of range angles are clamped. The division truncates.
func (c ChannelCalibration) PulseUs(angle int) int {
	angle = ClampAngle(angle)
	return c.MinUs + angle*(c.MaxUs-c.MinUs)/(MaxAngle-MinAngle)
}

// DefaultCalibration returns the factory bounds of the arm.
func DefaultCalibration() Calibration {
	mins := [ChannelCount]int{500, 520, 510, 500, 520, 510}
	maxs := [ChannelCount]int{2500, 2480, 2490, 2500, 2480, 2490}

	var cal Calibration
	for i := range cal {
		cal[i] = ChannelCalibration{
			MinUs:     mins[i],
			MaxUs:     maxs[i],
			NeutralUs: 1500,
		}
	}
	return cal
}
