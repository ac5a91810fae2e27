// Package tui is a terminal browser for generated reports: a paged table,
// a filter view and a Markdown detail view.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"researchkit/internal/reportdb"
)

type viewMode int

const (
	tableView viewMode = iota
	filterView
	detailView
)

// Navigation messages
type goToDetailMsg struct {
	item *reportDetail
}
type goToFilterMsg struct{}
type goToTableMsg struct{}
type applyFilterMsg struct {
	query string
}

type rootPage struct {
	viewMode   viewMode
	all        []reportdb.Report
	detailPage detailPage
	tablePage  tablePage
	filterPage filterPage
	width      int
	height     int
}

type reportDetail struct {
	kind      string
	query     string
	path      string
	items     int
	createdAt time.Time
	content   string
	err       error
}

// Run shows reports, newest first, until the user quits.
func Run(reports []reportdb.Report) error {
	p := tea.NewProgram(newRoot(reports), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("report browser: %w", err)
	}
	return nil
}

func newRoot(reports []reportdb.Report) rootPage {
	return rootPage{
		all:        reports,
		tablePage:  TablePage(reports, 0, 10, 0),
		filterPage: newFilterPage(),
	}
}

func (m rootPage) Init() tea.Cmd {
	return nil
}

func (m rootPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.viewMode {
	case tableView:
		m.tablePage, cmd = update[tablePage](m.tablePage, msg)
	case detailView:
		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
	case filterView:
		m.filterPage, cmd = update[filterPage](m.filterPage, msg)
	}

	switch msg := msg.(type) {
	case goToFilterMsg:
		m.viewMode = filterView
		m.filterPage, cmd = update[filterPage](m.filterPage, msg)
	case goToTableMsg:
		m.viewMode = tableView
	case applyFilterMsg:
		m.viewMode = tableView
		m.tablePage = m.tablePage.withItems(filterReports(m.all, msg.query), msg.query)
	case goToDetailMsg:
		m.viewMode = detailView
		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
	case tea.WindowSizeMsg:
		var cmds []tea.Cmd

		m.tablePage, cmd = update[tablePage](m.tablePage, msg)
		cmds = append(cmds, cmd)

		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
		cmds = append(cmds, cmd)

		m.filterPage, cmd = update[filterPage](m.filterPage, msg)
		cmds = append(cmds, cmd)

		m.width = msg.Width - 4
		m.height = msg.Height - 4

		return m, tea.Batch(cmds...)
	}

	return m, cmd
}

func (m rootPage) View() string {
	switch m.viewMode {
	case detailView:
		return m.detailPage.View()
	case filterView:
		return m.filterPage.View()
	case tableView:
		return m.tablePage.View()
	default:
		return "Unknown View"
	}
}

func update[T any](model tea.Model, msg tea.Msg) (T, tea.Cmd) {
	newModel, cmd := model.Update(msg)
	return newModel.(T), cmd
}
