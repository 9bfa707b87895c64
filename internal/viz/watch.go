// Package viz renders a live terminal view of a running thermostat:
// current temperature, DOF and kinetic tensor beside a scrolling
// temperature history graph.
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/avelkov/asphersim/internal/engine"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const historyCapacity = 400

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model is the bubbletea model driving one thermostat run.
type Model struct {
	th      *engine.Thermostat
	target  float64
	steps   int
	fps     int
	history []float64
	paused  bool
	done    bool
	err     error
}

func NewModel(th *engine.Thermostat, target float64, steps, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{
		th:      th,
		target:  target,
		steps:   steps,
		fps:     fps,
		history: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
		return m, nil

	case TickMsg:
		if m.done || m.err != nil {
			return m, nil
		}
		if !m.paused {
			temp, err := m.th.Step()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.history = append(m.history, temp)
			if len(m.history) > historyCapacity {
				m.history = m.history[1:]
			}
			if int(m.th.StepCount()) >= m.steps {
				m.done = true
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("asphersim watch"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(fmt.Sprintf("error: %v\n", m.err))
		b.WriteString(helpStyle.Render("q: quit"))
		return b.String()
	}

	current := 0.0
	if n := len(m.history); n > 0 {
		current = m.history[n-1]
	}

	var stats strings.Builder
	writeStat(&stats, "step", fmt.Sprintf("%d / %d", m.th.StepCount(), m.steps))
	writeStat(&stats, "temp", fmt.Sprintf("%.6f", current))
	writeStat(&stats, "target", fmt.Sprintf("%.6f", m.target))
	writeStat(&stats, "dof", fmt.Sprintf("%.0f", m.th.DOF()))
	if m.paused {
		writeStat(&stats, "state", "paused")
	} else if m.done {
		writeStat(&stats, "state", "done")
	}
	b.WriteString(statsStyle.Render(stats.String()))
	b.WriteString("\n")

	if len(m.history) > 1 {
		graph := asciigraph.Plot(m.history,
			asciigraph.Height(12),
			asciigraph.Width(72),
			asciigraph.Caption("temperature"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space: pause  q: quit"))
	return b.String()
}

func writeStat(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

// Run starts the live view and blocks until it exits.
func Run(th *engine.Thermostat, target float64, steps, fps int) error {
	p := tea.NewProgram(NewModel(th, target, steps, fps))
	_, err := p.Run()
	return err
}
