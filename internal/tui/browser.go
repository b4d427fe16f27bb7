// Package tui is a terminal browser over stored analysis runs.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/vsmkit/internal/analyzer"
	"github.com/san-kum/vsmkit/internal/loop"
	"github.com/san-kum/vsmkit/internal/report"
	"github.com/san-kum/vsmkit/internal/storage"
)

const (
	stateList = iota
	stateDetail
)

type model struct {
	store         *storage.Store
	state, cursor int
	runs          []storage.RunMetadata
	selected      *storage.RunMetadata
	sample        analyzer.SampleResult
	axis          loop.Axis
	err           error
	width, height int
}

// New loads the run list from st.
func New(st *storage.Store) (*model, error) {
	runs, err := st.List()
	if err != nil {
		return nil, err
	}
	return &model{store: st, runs: runs, width: 80, height: 24}, nil
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateDetail {
			return m.detailKey(msg)
		}
		return m.listKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	}
	return m, nil
}

func (m model) listKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.runs)-1 {
			m.cursor++
		}
	case "r":
		runs, err := m.store.List()
		m.runs, m.err = runs, err
		m.cursor = min(m.cursor, max(len(runs)-1, 0))
	case "enter", " ":
		if len(m.runs) == 0 {
			return m, nil
		}
		m.open(m.runs[m.cursor].ID)
	}
	return m, nil
}

func (m *model) open(id string) {
	meta, err := m.store.Load(id)
	if err != nil {
		m.err = err
		return
	}
	sample, err := m.store.LoadSample(id)
	if err != nil {
		m.err = err
		return
	}
	m.selected, m.sample, m.err = meta, sample, nil
	m.axis = loop.Easy
	if sample.Easy == nil {
		m.axis = loop.Hard
	}
	m.state = stateDetail
}

func (m model) detailKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "backspace":
		m.state, m.selected, m.sample = stateList, nil, analyzer.SampleResult{}
	case "tab", "a":
		other := loop.Hard
		if m.axis == loop.Hard {
			other = loop.Easy
		}
		if m.sample.Axis(other) != nil {
			m.axis = other
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.state == stateDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m model) viewList() string {
	var b strings.Builder
	b.WriteString("\n  " + report.Title.Render("VSMKIT") + "\n  " + report.Subtle.Render("stored loop analyses") + "\n  " + report.Separator(25) + "\n\n")

	if len(m.runs) == 0 {
		b.WriteString("  " + report.Subtle.Render("no runs stored; analyse with --store") + "\n")
	}
	for i, run := range m.runs {
		line := fmt.Sprintf("%-24s %-8s %s", run.Sample, axesOf(run), run.Timestamp.Format("2006-01-02 15:04"))
		if i == m.cursor {
			b.WriteString("  " + report.KeyHint.Render("▸") + " " + report.Selected.Render(line) + "\n")
		} else {
			b.WriteString("    " + report.Subtle.Render(line) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n  " + report.Failure.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n  " + report.Hints("j/k", "navigate", "enter", "open", "r", "reload", "q", "quit") + "\n")
	return b.String()
}

func axesOf(run storage.RunMetadata) string {
	names := make([]string, 0, len(run.Axes))
	for _, a := range run.Axes {
		names = append(names, a.Axis)
	}
	return strings.Join(names, "+")
}

func (m model) viewDetail() string {
	var b strings.Builder
	res := m.sample.Axis(m.axis)
	b.WriteString("\n  " + report.Title.Render(m.selected.Sample) + "  " + report.Subtle.Render(m.axis.String()+" axis  "+m.selected.ID) + "\n  " + report.Separator(25) + "\n\n")

	if !res.OK() {
		b.WriteString("  " + report.Failure.Render(res.Err.Error()) + "\n")
	}
	for _, v := range res.Values() {
		val := report.Unavailable.Render(report.NotAvailable)
		if v.OK {
			val = report.Value.Render(report.FormatEng(v.Value))
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", report.Label.Render(fmt.Sprintf("%-6s", v.Name)), val))
	}

	if res.OK() {
		graph, err := report.PlotASCII(res, m.selected.Sample, max(m.width-12, 20), max(m.height-16, 6))
		if err == nil {
			b.WriteString("\n" + graph + "\n")
		}
	}
	b.WriteString("\n  " + report.Hints("tab", "switch axis", "esc", "back", "ctrl+c", "quit") + "\n")
	return b.String()
}

func Run(st *storage.Store) error {
	m, err := New(st)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
