package robot

import (
	"testing"
)

func newTestController() (*Controller, *fakePWM, *fakeRelays) {
	drv := &fakePWM{}
	relays := &fakeRelays{}
	ctrl := NewController(newTestGenerator(drv), NewRelayBank(relays, testLogger()))
	return ctrl, drv, relays
}

func neutralOff(t *testing.T) [ChannelCount]uint16 {
	t.Helper()
	pwm := DefaultPWM()
	var want [ChannelCount]uint16
	for i, ch := range DefaultCalibration() {
		want[i] = pwm.Steps(ch.NeutralUs)
	}
	return want
}

func TestController_InitializeToNeutral(t *testing.T) {
	ctrl, drv, relays := newTestController()

	ctrl.InitializeToNeutral()

	if drv.off != neutralOff(t) {
		t.Errorf("off steps = %v, want %v", drv.off, neutralOff(t))
	}
	if relays.writes != RelayCount {
		t.Errorf("relay writes = %d, want %d", relays.writes, RelayCount)
	}
	if ctrl.State() != StateSafe {
		t.Errorf("state = %s, want safe", ctrl.State())
	}
}

func TestController_EmergencyStopFromAnyState(t *testing.T) {
	ctrl, drv, relays := newTestController()
	ctrl.InitializeToNeutral()

	ctrl.MoveChannel(Base, 0)
	ctrl.MoveChannel(Gripper, 180)
	ctrl.SetRelay(1, true)
	if ctrl.State() != StateNormal {
		t.Fatalf("state = %s, want normal", ctrl.State())
	}

	ctrl.EmergencyStop()
	once := drv.off
	onceRelays := relays.states

	ctrl.EmergencyStop()

	if drv.off != neutralOff(t) {
		t.Errorf("off steps = %v, want neutral", drv.off)
	}
	if drv.off != once || relays.states != onceRelays {
		t.Errorf("second stop changed outputs")
	}
	if relays.states != [RelayCount]bool{} {
		t.Errorf("relays = %v, want all off", relays.states)
	}
	if ctrl.State() != StateSafe {
		t.Errorf("state = %s, want safe", ctrl.State())
	}
}

func TestController_MoveUnknownChannelKeepsState(t *testing.T) {
	ctrl, drv, _ := newTestController()
	ctrl.InitializeToNeutral()
	before := drv.off
	writes := len(drv.writes)

	ctrl.MoveChannel(ChannelCount, 90)
	ctrl.MoveChannel(-3, 90)

	if len(drv.writes) != writes || drv.off != before {
		t.Errorf("unknown channel changed outputs")
	}
	if ctrl.State() != StateSafe {
		t.Errorf("state = %s, want safe", ctrl.State())
	}
}

func TestController_MoveResumesFromSafe(t *testing.T) {
	ctrl, drv, _ := newTestController()
	ctrl.InitializeToNeutral()

	ctrl.MoveChannel(Elbow, 180)

	if ctrl.State() != StateNormal {
		t.Errorf("state = %s, want normal", ctrl.State())
	}
	want := DefaultPWM().Steps(DefaultCalibration()[Elbow].MaxUs)
	if drv.off[Elbow] != want {
		t.Errorf("elbow off = %d, want %d", drv.off[Elbow], want)
	}
	if drv.off[Shoulder] != neutralOff(t)[Shoulder] || drv.off[WristPitch] != neutralOff(t)[WristPitch] {
		t.Errorf("adjacent channels changed: %v", drv.off)
	}
}

func TestController_SetRelay(t *testing.T) {
	ctrl, _, relays := newTestController()
	ctrl.InitializeToNeutral()

	ctrl.SetRelay(RelayCount, true)
	if ctrl.State() != StateSafe {
		t.Errorf("unknown relay changed state")
	}

	ctrl.SetRelay(0, true)
	if !relays.states[0] || !ctrl.Relays()[0] {
		t.Errorf("relay 0 not on")
	}
	if ctrl.State() != StateNormal {
		t.Errorf("state = %s, want normal", ctrl.State())
	}
}
