package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"ticktrace/internal/demo"
)

type monitorModel struct {
	title   string
	frames  <-chan demo.Frame
	spinner spinner.Model
	prog    progress.Model
	last    demo.Frame
	sampled bool
	width   int
	done    bool
}

type frameMsg demo.Frame
type doneMsg struct{}

// NewMonitorModel returns a Bubble Tea model that renders live workload
// statistics. It quits when the frame channel closes or on q/ctrl+c.
func NewMonitorModel(title string, frames <-chan demo.Frame) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 56

	return &monitorModel{
		title:   title,
		frames:  frames,
		spinner: sp,
		prog:    prog,
		width:   80,
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForFrame())
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.last = demo.Frame(msg)
		m.sampled = true
		return m, tea.Batch(m.setUtilization(), m.listenForFrame())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
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
			m.prog.Width = msg.Width - 24
		}
		return m, nil
	case progress.FrameMsg:
		progModel, cmd := m.prog.Update(msg)
		m.prog = progModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *monitorModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	numStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	header := m.title
	if m.sampled {
		header = fmt.Sprintf("%s (%s)", header, m.last.Elapsed.Round(time.Second))
	}
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	if !m.sampled {
		b.WriteString(labelStyle.Render("  waiting for first sample..."))
		b.WriteString("\n")
		return b.String()
	}

	f := m.last
	b.WriteString("  buffer ")
	b.WriteString(m.prog.View())
	b.WriteString(fmt.Sprintf(" %d/%d\n\n", f.Stats.Entries, f.BufferCap))

	row := func(label string, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-12s", label)),
			value))
	}
	row("recorded", numStyle.Render(fmt.Sprintf("%d", f.Stats.TotalWritten)))
	row("flushes", numStyle.Render(fmt.Sprintf("%d", f.Stats.Flushes)))
	if f.Stats.Overwrites > 0 {
		row("overwrites", warnStyle.Render(fmt.Sprintf("%d", f.Stats.Overwrites)))
	} else {
		row("overwrites", numStyle.Render("0"))
	}
	if f.FlushPending {
		row("flush", warnStyle.Render("requested"))
	}
	row("queue", numStyle.Render(fmt.Sprintf("%d/%d", f.QueueLen, f.QueueCap)))

	b.WriteString("\n")
	nameWidth := m.width - 28
	if nameWidth < 12 {
		nameWidth = 12
	}
	for _, name := range sortedKeys(f.Produced) {
		row(truncate(name, nameWidth), numStyle.Render(fmt.Sprintf("%d sent", f.Produced[name])))
	}
	row("consumed", numStyle.Render(fmt.Sprintf("%d", f.Consumed)))
	if f.CodecErrors > 0 {
		row("codec errors", warnStyle.Render(fmt.Sprintf("%d", f.CodecErrors)))
	}

	return b.String()
}

func (m *monitorModel) listenForFrame() tea.Cmd {
	return func() tea.Msg {
		f, ok := <-m.frames
		if !ok {
			return doneMsg{}
		}
		return frameMsg(f)
	}
}

func (m *monitorModel) setUtilization() tea.Cmd {
	if m.last.BufferCap <= 0 {
		return nil
	}
	pct := float64(m.last.Stats.Entries) / float64(m.last.BufferCap)
	if pct > 1 {
		pct = 1
	}
	return m.prog.SetPercent(pct)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
