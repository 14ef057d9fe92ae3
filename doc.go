// Package armguard drives a six-channel servo arm and its irrigation relays
// from newline-delimited JSON commands, and forces the arm to a safe neutral
// pose whenever the command sender goes quiet.
//
// # Installation
//
//	go install github.com/gwillem/armguard/cmd/armguard@latest
//
// # Usage
//
// Write a configuration file and review the calibration:
//
//	armguard init
//	armguard calibration
//
// Run the control loop on the arm, with commands on a serial link:
//
//	armguard run --port /dev/ttyUSB0 --metrics-addr :9100
//
// Try commands interactively against simulated hardware:
//
//	armguard console
//
// # Packages
//
//   - cmd/armguard: CLI with run, console, calibration, init and ports commands
//   - pkg/robot: Channels, calibration, pulse generation and configuration
//   - pkg/gateway: Command decoding, dispatch and outbound events
//   - pkg/watchdog: Command timeout rule
//   - pkg/control: The control loop tying frames, watchdog and sensors together
//   - pkg/link: Line framing and the serial port
//   - pkg/sensor: Moisture and light readings
//   - pkg/hw: PCA9685, GPIO relays and simulated hardware
//   - pkg/telemetry: Prometheus metrics and the MQTT event mirror
package armguard
