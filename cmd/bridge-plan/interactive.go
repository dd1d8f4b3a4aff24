package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ffi-bridge/plan"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateDetail
)

type browserModel struct {
	plan     *plan.Plan
	filter   textinput.Model
	visible  []int
	selected int
	state    modelState
}

func newBrowserModel(p *plan.Plan) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter functions"
	ti.Prompt = "/ "
	ti.Width = 40
	ti.Focus()

	m := &browserModel{plan: p, filter: ti}
	m.refilter()
	return m
}

func (m *browserModel) Init() tea.Cmd {
	return textinput.Blink
}

// refilter keeps functions whose name contains the filter text.
func (m *browserModel) refilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, f := range m.plan.Functions {
		if q == "" || strings.Contains(strings.ToLower(f.Name), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browserModel) current() (plan.FuncPlan, bool) {
	if len(m.visible) == 0 {
		return plan.FuncPlan{}, false
	}
	return m.plan.Functions[m.visible[m.selected]], true
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.state == stateBrowse {
				if _, ok := m.current(); ok {
					m.state = stateDetail
					m.filter.Blur()
				}
			}
			return m, nil

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
				return m, m.filter.Focus()
			}
			return m, tea.Quit

		case "q":
			if m.state == stateDetail {
				return m, tea.Quit
			}
		}
	}

	if m.state != stateBrowse {
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	return m, cmd
}

func (m *browserModel) View() string {
	st := newStyler(true)
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bridge plan"))
	if m.plan.Name != "" {
		b.WriteString(" " + m.plan.Name)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("  no matching functions"))
			b.WriteString("\n")
		}
		for i, idx := range m.visible {
			line := formatFunc(m.plan.Functions[idx], st)
			if i == m.selected {
				line = selectedStyle.Render(">" + line[1:])
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter details • esc quit"))

	case stateDetail:
		f, _ := m.current()
		b.WriteString(renderDetail(f, st))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}

	return b.String()
}

func renderDetail(f plan.FuncPlan, st styler) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n  %s\n", st(nameStyle, f.Symbol), f.Signature)
	if f.Async {
		fmt.Fprintf(&b, "  completes through %s\n", f.Trampoline)
	}
	b.WriteString("\n")

	for _, prm := range f.Params {
		writeSelection(&b, st, prm.Name, prm.Selection, 1)
	}
	if f.Result.Category != plan.CategoryUnit {
		writeSelection(&b, st, "result", f.Result, 1)
	}
	return b.String()
}

func writeSelection(b *strings.Builder, st styler, label string, s plan.Selection, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s: %s  size=%d align=%d flat=%d\n",
		indent, label, formatSelection(s, st), s.Layout.Size, s.Layout.Align, s.Flat)
	for _, sym := range s.Symbols {
		fmt.Fprintf(b, "%s  %s\n", indent, st(dimStyle, sym))
	}
	for i, c := range s.Children {
		writeSelection(b, st, fmt.Sprintf("%d", i), c, depth+1)
	}
}

func runInteractive(p *plan.Plan) error {
	prog := tea.NewProgram(newBrowserModel(p), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
