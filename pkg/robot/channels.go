// Package robot provides calibrated control of the arm's servo channels and
// relay outputs.
package robot

// ChannelCount is the number of servo channels on the arm.
const ChannelCount = 6

// RelayCount is the number of relay outputs.
const RelayCount = 2

// Channel indexes for the arm, matching the PCA9685 output they are wired to.
const (
	Base = iota
	Shoulder
	Elbow
	WristPitch
	WristRoll
	Gripper
)

var channelNames = [ChannelCount]string{
	"base",
	"shoulder",
	"elbow",
	"wrist_pitch",
	"wrist_roll",
	"gripper",
}

// ChannelName returns a human readable name for a channel index.
func ChannelName(index int) string {
	if !ValidChannel(index) {
		return "unknown"
	}
	return channelNames[index]
}

// ValidChannel reports whether index addresses a servo channel.
func ValidChannel(index int) bool {
	return index >= 0 && index < ChannelCount
}
