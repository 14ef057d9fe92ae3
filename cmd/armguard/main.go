package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"

	"github.com/gwillem/armguard/pkg/robot"
)

type Options struct {
	Config   string `short:"c" long:"config" description:"Configuration file (default armguard.json)"`
	LogLevel string `long:"log-level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Log level"`

	Run         RunCommand         `command:"run" description:"Run the control loop on the arm"`
	Console     ConsoleCommand     `command:"console" description:"Interactive console on simulated hardware"`
	Calibration CalibrationCommand `command:"calibration" alias:"cal" description:"Show the calibration table"`
	Init        InitCommand        `command:"init" description:"Write a default configuration file"`
	Ports       PortsCommand       `command:"ports" description:"List serial ports"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "armguard - servo actuation and safety watchdog for the greenhouse arm"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Prefix:          "armguard",
	})
	if level, err := log.ParseLevel(opts.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func configPath() string {
	if opts.Config != "" {
		return opts.Config
	}
	return robot.DefaultConfigFile
}

// loadConfig reads the configuration file. When allowDefault is set a
// missing file yields the factory configuration.
func loadConfig(allowDefault bool) (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(configPath())
	if err == nil {
		return cfg, nil
	}
	if allowDefault && errors.Is(err, os.ErrNotExist) {
		return robot.DefaultConfig(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no configuration at %s, run 'armguard init' first", configPath())
	}
	return nil, err
}
