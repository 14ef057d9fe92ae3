package main

import (
	"fmt"

	"github.com/gwillem/armguard/pkg/robot"
)

type InitCommand struct {
	Force bool   `short:"f" long:"force" description:"Overwrite an existing configuration file"`
	Port  string `short:"p" long:"port" description:"Serial port to store in the configuration"`
}

func (c *InitCommand) Execute(args []string) error {
	path := configPath()
	if robot.ConfigExists(path) && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	cfg := robot.DefaultConfig()
	cfg.Serial.Port = c.Port
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Println(successStyle.Render("Configuration written to " + path))
	fmt.Println("Review the calibration with: " + headerStyle.Render("armguard calibration"))
	return nil
}
