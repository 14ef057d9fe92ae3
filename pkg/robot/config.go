package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gwillem/armguard/pkg/sensor"
)

const DefaultConfigFile = "armguard.json"

// Config holds the arm configuration. It is loaded once at startup and not
// modified afterwards.
type Config struct {
	PWM         PWMConfig          `json:"pwm"`
	Calibration Calibration        `json:"calibration"`
	Relays      [RelayCount]string `json:"relays"`
	Sensors     sensor.Config      `json:"sensors"`
	Safety      SafetyConfig       `json:"safety"`
	Serial      SerialConfig       `json:"serial"`
}

// SafetyConfig holds the watchdog and reporting cadence, in milliseconds.
type SafetyConfig struct {
	CommandTimeoutMs int `json:"command_timeout_ms"`
	WatchdogPeriodMs int `json:"watchdog_period_ms"`
	SensorIntervalMs int `json:"sensor_interval_ms"`
}

// CommandTimeout is the longest allowed silence from the command sender.
func (s SafetyConfig) CommandTimeout() time.Duration {
	return time.Duration(s.CommandTimeoutMs) * time.Millisecond
}

// WatchdogPeriod is how often the watchdog rule is evaluated.
func (s SafetyConfig) WatchdogPeriod() time.Duration {
	return time.Duration(s.WatchdogPeriodMs) * time.Millisecond
}

// SensorInterval is the unsolicited sensor report cadence; zero disables it.
func (s SafetyConfig) SensorInterval() time.Duration {
	return time.Duration(s.SensorIntervalMs) * time.Millisecond
}

// SerialConfig holds the command link settings.
type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
}

// DefaultConfig returns the factory configuration of the arm.
func DefaultConfig() *Config {
	return &Config{
		PWM:         DefaultPWM(),
		Calibration: DefaultCalibration(),
		Relays:      [RelayCount]string{"GPIO7", "GPIO8"},
		Sensors:     sensor.DefaultConfig(),
		Safety: SafetyConfig{
			CommandTimeoutMs: 5000,
			WatchdogPeriodMs: 2000,
			SensorIntervalMs: 2000,
		},
		Serial: SerialConfig{
			BaudRate: 115200,
		},
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.PWM.Validate(); err != nil {
		return err
	}
	if err := c.Calibration.Validate(); err != nil {
		return err
	}
	period := c.PWM.PeriodUs()
	for i, ch := range c.Calibration {
		if ch.MaxUs >= period {
			return fmt.Errorf("channel %d (%s): %w: max %dus exceeds period %dus",
				i, ChannelName(i), ErrInvalidCalibration, ch.MaxUs, period)
		}
	}
	if c.Safety.CommandTimeoutMs <= 0 {
		return errors.New("command timeout must be positive")
	}
	if c.Safety.WatchdogPeriodMs <= 0 {
		return errors.New("watchdog period must be positive")
	}
	if c.Safety.SensorIntervalMs < 0 {
		return errors.New("sensor interval must not be negative")
	}
	return nil
}

// LoadConfigFrom loads and validates configuration from a specific file.
// Fields missing from the file keep their default values.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if a config file exists at path
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
