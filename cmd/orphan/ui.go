// # cmd/orphan/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"orphan/internal/core/app"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	unusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list   list.Model
	report *app.Report
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("%d files checked in %s",
		m.report.TotalFiles, m.report.Elapsed.Round(time.Millisecond)))

	var summary string
	if m.report.UnusedCount == 0 {
		summary = successStyle.Render("No unused files")
	} else {
		summary = unusedStyle.Render(fmt.Sprintf("%d unused files", m.report.UnusedCount))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Unused File Report"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func runUI(report *app.Report) error {
	items := make([]list.Item, 0, len(report.UnusedFiles)+len(report.Warnings))
	for _, file := range report.UnusedFiles {
		items = append(items, item{title: file, desc: "unreachable from every entry point"})
	}
	for _, warning := range report.Warnings {
		items = append(items, item{title: string(warning.Code), desc: warning.String()})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Unused Files"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	_, err := tea.NewProgram(model{list: l, report: report}, tea.WithAltScreen()).Run()
	return err
}
