package robot

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

type pwmWrite struct {
	channel int
	on, off uint16
}

type fakePWM struct {
	writes []pwmWrite
	off    [ChannelCount]uint16
	err    error
}

func (f *fakePWM) SetPWM(channel int, on, off uint16) error {
	f.writes = append(f.writes, pwmWrite{channel, on, off})
	if channel >= 0 && channel < ChannelCount {
		f.off[channel] = off
	}
	return f.err
}

type fakeRelays struct {
	states [RelayCount]bool
	writes int
}

func (f *fakeRelays) SetRelay(index int, on bool) error {
	f.states[index] = on
	f.writes++
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestGenerator(driver PWMDriver) *PulseGenerator {
	cal := DefaultCalibration()
	cal[Base] = ChannelCalibration{MinUs: 500, MaxUs: 2500, NeutralUs: 1500}
	return NewPulseGenerator(driver, DefaultPWM(), cal, testLogger())
}

func TestPulseGenerator_Midpoint(t *testing.T) {
	drv := &fakePWM{}
	gen := newTestGenerator(drv)

	gen.SetChannelAngle(Base, 90)

	if len(drv.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(drv.writes))
	}
	w := drv.writes[0]
	if w.channel != Base || w.on != 0 || w.off != 307 {
		t.Errorf("write = %+v, want channel 0 off 307 (1500us)", w)
	}
}

func TestPulseGenerator_MonotonicAndEndpoints(t *testing.T) {
	pwm := DefaultPWM()
	gen := NewPulseGenerator(&fakePWM{}, pwm, DefaultCalibration(), testLogger())
	cal := DefaultCalibration()

	for ch := 0; ch < ChannelCount; ch++ {
		var prev uint16
		for a := MinAngle; a <= MaxAngle; a++ {
			steps, ok := gen.Steps(ch, a)
			if !ok {
				t.Fatalf("Steps(%d, %d) not ok", ch, a)
			}
			if steps < prev {
				t.Fatalf("channel %d: steps decreased at %d degrees: %d < %d", ch, a, steps, prev)
			}
			prev = steps
		}

		lo, _ := gen.Steps(ch, MinAngle)
		if want := pwm.Steps(cal[ch].MinUs); lo != want {
			t.Errorf("channel %d: Steps(0) = %d, want %d", ch, lo, want)
		}
		hi, _ := gen.Steps(ch, MaxAngle)
		if want := pwm.Steps(cal[ch].MaxUs); hi != want {
			t.Errorf("channel %d: Steps(180) = %d, want %d", ch, hi, want)
		}
	}
}

func TestPulseGenerator_OutOfRangeAngleClamps(t *testing.T) {
	gen := newTestGenerator(&fakePWM{})

	for ch := 0; ch < ChannelCount; ch++ {
		for _, a := range []int{-1000, -181, -1, 181, 255, 256, 100000} {
			got, _ := gen.Steps(ch, a)
			want, _ := gen.Steps(ch, ClampAngle(a))
			if got != want {
				t.Errorf("channel %d: Steps(%d) = %d, want %d", ch, a, got, want)
			}
		}
	}
}

func TestPulseGenerator_UnknownChannelIgnored(t *testing.T) {
	drv := &fakePWM{}
	gen := newTestGenerator(drv)

	for _, ch := range []int{-1, ChannelCount, ChannelCount + 1, 255, -1 << 20} {
		gen.SetChannelAngle(ch, 90)
	}

	if len(drv.writes) != 0 {
		t.Errorf("unknown channels produced writes: %+v", drv.writes)
	}
}

func TestPulseGenerator_SetAllNeutral(t *testing.T) {
	drv := &fakePWM{}
	gen := newTestGenerator(drv)

	gen.SetAllNeutral()

	if len(drv.writes) != ChannelCount {
		t.Fatalf("got %d writes, want %d", len(drv.writes), ChannelCount)
	}
	for i, off := range drv.off {
		if off != 307 {
			t.Errorf("channel %d off = %d, want 307", i, off)
		}
	}
}

func TestPulseGenerator_DriverErrorIsSwallowed(t *testing.T) {
	drv := &fakePWM{err: errors.New("i2c nack")}
	gen := newTestGenerator(drv)

	gen.SetAllNeutral()
	gen.SetChannelAngle(Gripper, 10)

	if len(drv.writes) != ChannelCount+1 {
		t.Errorf("got %d writes, want %d", len(drv.writes), ChannelCount+1)
	}
}
