package robot

// State is the controller's safety state.
type State int

const (
	// StateSafe means every channel is held at neutral and every relay is off.
	StateSafe State = iota
	// StateNormal means channels are being moved on command.
	StateNormal
)

func (s State) String() string {
	switch s {
	case StateSafe:
		return "safe"
	case StateNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// Controller owns the arm's channels and relays. It is not safe for
// concurrent use; the control loop is its only caller.
type Controller struct {
	pulses *PulseGenerator
	relays *RelayBank
	state  State
}

// NewController creates a controller. Call InitializeToNeutral before
// accepting any command.
func NewController(pulses *PulseGenerator, relays *RelayBank) *Controller {
	return &Controller{
		pulses: pulses,
		relays: relays,
		state:  StateSafe,
	}
}

// State returns the current safety state.
func (c *Controller) State() State {
	return c.state
}

// InitializeToNeutral puts the arm in its resting position.
func (c *Controller) InitializeToNeutral() {
	c.pulses.SetAllNeutral()
	c.relays.AllOff()
	c.state = StateSafe
}

// EmergencyStop forces the safe state. It may be called any number of times.
func (c *Controller) EmergencyStop() {
	c.InitializeToNeutral()
}

// MoveChannel drives one channel to angle. The angle is clamped and unknown
// channels are ignored.
func (c *Controller) MoveChannel(index, angle int) {
	c.pulses.SetChannelAngle(index, angle)
	if ValidChannel(index) {
		c.state = StateNormal
	}
}

// SetRelay switches one relay. Unknown relays are ignored.
func (c *Controller) SetRelay(index int, on bool) {
	if c.relays.Set(index, on) {
		c.state = StateNormal
	}
}

// Relays returns the last commanded relay states.
func (c *Controller) Relays() [RelayCount]bool {
	return c.relays.States()
}
