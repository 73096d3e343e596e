package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"strada/internal/scenario"
)

type progressModel struct {
	title   string
	events  <-chan scenario.Event
	spinner spinner.Model
	prog    progress.Model
	items   []scenarioItem
	index   map[string]int
	threads int
	width   int
	done    bool
}

type scenarioItem struct {
	name    string
	status  scenario.Status
	elapsed time.Duration
	err     error
}

type eventMsg scenario.Event
type doneMsg struct{}

// ThreadCountMsg updates the number of runtime threads currently alive.
type ThreadCountMsg int

// NewProgressModel returns a Bubble Tea model that renders scenario progress.
func NewProgressModel(title string, names []string, events <-chan scenario.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]scenarioItem, 0, len(names))
	index := make(map[string]int, len(names))
	for i, name := range names {
		items = append(items, scenarioItem{name: name, status: scenario.StatusQueued})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(scenario.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case ThreadCountMsg:
		m.threads = int(msg)
		return m, nil
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.threads > 0 {
		header = fmt.Sprintf("%s (%d threads)", header, m.threads)
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 10
	const timeWidth = 10
	nameWidth := max(m.width-statusWidth-timeWidth-6, 20)

	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.status))
		elapsed := ""
		if item.elapsed > 0 {
			elapsed = item.elapsed.Round(time.Microsecond).String()
		}
		line := fmt.Sprintf("  %s %-*s %s", status, timeWidth, elapsed, truncate(item.name, nameWidth))
		b.WriteString(line)
		b.WriteString("\n")
		if item.err != nil {
			errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
			b.WriteString("      ")
			b.WriteString(errStyle.Render(truncate(item.err.Error(), m.width-6)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev scenario.Event) tea.Cmd {
	idx, ok := m.index[ev.Scenario]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = ev.Status
	if ev.Elapsed > 0 {
		item.elapsed = ev.Elapsed
	}
	if ev.Err != nil {
		item.err = ev.Err
	}
	return m.prog.SetPercent(m.fraction())
}

// fraction weighs a running scenario as half done.
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		switch item.status {
		case scenario.StatusDone, scenario.StatusFailed:
			total += 1.0
		case scenario.StatusRunning:
			total += 0.5
		}
	}
	return total / float64(len(m.items))
}

func styleStatus(status scenario.Status) lipgloss.Style {
	switch status {
	case scenario.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case scenario.StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case scenario.StatusRunning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
