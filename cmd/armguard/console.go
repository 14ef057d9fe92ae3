package main

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/armguard/pkg/control"
	"github.com/gwillem/armguard/pkg/gateway"
	"github.com/gwillem/armguard/pkg/hw"
	"github.com/gwillem/armguard/pkg/link"
	"github.com/gwillem/armguard/pkg/robot"
	"github.com/gwillem/armguard/pkg/sensor"
)

type ConsoleCommand struct {
	Timeout int `long:"timeout" description:"Override the command timeout in milliseconds"`
}

const (
	headerHeight = 3 // title + status + blank line
	legendHeight = 2 // legend row + blank
	inputHeight  = 3 // bordered input
	footerHeight = 8 // log box height
	maxLogs      = 6 // number of log lines to show
	borderSize   = 2 // chart border
)

var channelColors = [robot.ChannelCount]string{
	"196", // red
	"208", // orange
	"226", // yellow
	"46",  // green
	"51",  // cyan
	"201", // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	safeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	normalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	inputStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12"))
)

// lineLog collects written lines, keeping the last maxLogs.
type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		l.lines = append(l.lines, string(line))
	}
	if len(l.lines) > maxLogs {
		l.lines = l.lines[len(l.lines)-maxLogs:]
	}
	return len(p), nil
}

func (l *lineLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

type watchdogMsg time.Time
type sensorMsg time.Time

func tickWatchdog(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return watchdogMsg(t) })
}

func tickSensors(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return sensorMsg(t) })
}

// consoleModel drives the control loop from bubbletea messages, so the loop
// only ever runs on the program's update goroutine.
type consoleModel struct {
	loop     *control.Loop
	pwm      *hw.SimPWM
	cfg      *robot.Config
	input    textinput.Model
	chart    *streamlinechart.Model
	logs     *lineLog
	width    int
	height   int
	quitting bool
}

func newConsoleModel(cfg *robot.Config) consoleModel {
	logs := &lineLog{}
	pwm := &hw.SimPWM{}
	logger := newLogger(logs)

	loop := control.New(control.Options{
		Config: cfg,
		PWM:    pwm,
		Relays: &hw.SimRelays{},
		Analog: sensor.NewSimReader(512, 16),
		Sink:   gateway.NewLineSink(logs),
		Logger: logger,
	})

	input := textinput.New()
	input.Placeholder = `{"cmd":"move_servo","servo":0,"angle":90}`
	input.CharLimit = link.MaxFrame
	input.Prompt = "› "
	input.Focus()

	maxSteps := float64(cfg.PWM.Steps(cfg.PWM.PeriodUs()))
	chart := streamlinechart.New(80, 12, streamlinechart.WithYRange(0, maxSteps/4))
	for i := range robot.ChannelCount {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(channelColors[i]))
		chart.SetDataSetStyles(robot.ChannelName(i), runes.ThinLineStyle, style)
	}

	return consoleModel{
		loop:  loop,
		pwm:   pwm,
		cfg:   cfg,
		input: input,
		chart: &chart,
		logs:  logs,
	}
}

func (m *consoleModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 12
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-inputHeight-footerHeight-borderSize, 6)
	return width, height
}

func (m *consoleModel) pushPulses() {
	for i, off := range m.pwm.Off() {
		m.chart.PushDataSet(robot.ChannelName(i), float64(off))
	}
	m.chart.DrawAll()
}

func (m consoleModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tickWatchdog(m.cfg.Safety.WatchdogPeriod())}
	if d := m.cfg.Safety.SensorInterval(); d > 0 {
		cmds = append(cmds, tickSensors(d))
	}
	return tea.Batch(cmds...)
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		m.input.Width = max(m.width-8, 20)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.loop.Shutdown()
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line != "" {
				m.loop.HandleFrame(link.Frame{Line: []byte(line)}, time.Now())
				m.pushPulses()
			}
			return m, nil
		}

	case watchdogMsg:
		if m.loop.CheckWatchdog(time.Time(msg)) {
			m.pushPulses()
		}
		return m, tickWatchdog(m.cfg.Safety.WatchdogPeriod())

	case sensorMsg:
		m.loop.ReportSensors()
		m.pushPulses()
		return m, tickSensors(m.cfg.Safety.SensorInterval())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) View() string {
	if m.quitting {
		return "Console closed, arm at neutral.\n"
	}

	status := m.loop.Status()
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("armguard console"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  timeout %s", m.cfg.Safety.CommandTimeout())))
	sb.WriteString("\n")
	if status.State == robot.StateSafe {
		sb.WriteString(safeStyle.Render("SAFE"))
	} else {
		sb.WriteString(normalStyle.Render("NORMAL"))
	}
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  relays %v  last command %s ago",
		status.Relays, time.Since(status.LastCommand).Round(100*time.Millisecond))))
	if status.Tripped {
		sb.WriteString(safeStyle.Render("  watchdog tripped"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	sb.WriteString(inputStyle.Render(m.input.View()))
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 40))

	logLines := m.logs.String()
	if logLines == "" {
		logLines = statusStyle.Render("Type a command and press enter, esc to quit")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	items := make([]string, 0, robot.ChannelCount)
	for i := range robot.ChannelCount {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(channelColors[i])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+robot.ChannelName(i))
	}
	return strings.Join(items, "  ")
}

func (c *ConsoleCommand) Execute(args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if c.Timeout > 0 {
		cfg.Safety.CommandTimeoutMs = c.Timeout
	}

	m := newConsoleModel(cfg)
	m.pushPulses()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
