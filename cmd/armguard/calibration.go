package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/gwillem/armguard/pkg/robot"
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableNameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableStepsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
)

type CalibrationCommand struct{}

func (c *CalibrationCommand) Execute(args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	fmt.Println(headerStyle.Render("armguard calibration"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d Hz, %d steps per %d µs period, PCA9685 at 0x%02x",
		cfg.PWM.FrequencyHz, cfg.PWM.Resolution, cfg.PWM.PeriodUs(), cfg.PWM.Address)))
	fmt.Println()
	fmt.Println(calibrationTable(cfg))
	return nil
}

// calibrationTable renders pulse widths and the resulting off steps for every
// channel at both ends of its travel, at midpoint and at neutral.
func calibrationTable(cfg *robot.Config) string {
	// Steps never writes, so the generator needs no driver.
	pulses := robot.NewPulseGenerator(nil, cfg.PWM, cfg.Calibration, log.New(io.Discard))

	rows := make([][]string, 0, robot.ChannelCount)
	for i, ch := range cfg.Calibration {
		lo, _ := pulses.Steps(i, robot.MinAngle)
		mid, _ := pulses.Steps(i, (robot.MinAngle+robot.MaxAngle)/2)
		hi, _ := pulses.Steps(i, robot.MaxAngle)
		neutral, _ := pulses.NeutralSteps(i)
		rows = append(rows, []string{
			fmt.Sprintf("%d %s", i, robot.ChannelName(i)),
			fmt.Sprintf("%d-%d", ch.MinUs, ch.MaxUs),
			fmt.Sprintf("%d", ch.NeutralUs),
			fmt.Sprintf("%d", lo),
			fmt.Sprintf("%d", mid),
			fmt.Sprintf("%d", hi),
			fmt.Sprintf("%d", neutral),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Channel", "Pulse µs", "Neutral µs", "0°", "90°", "180°", "Neutral").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 0:
				return tableNameStyle
			case col >= 3:
				return tableStepsStyle
			default:
				return tableCellStyle
			}
		})
	return t.Render()
}
