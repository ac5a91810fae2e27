package tui

import (
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type filterPage struct {
	width  int
	height int
	input  textinput.Model
}

func newFilterPage() filterPage {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "kind, query or file name"
	input.Width = 50
	return filterPage{input: input}
}

func (m filterPage) Init() tea.Cmd {
	return nil
}

func (m filterPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			q := m.input.Value()
			return m, func() tea.Msg { return applyFilterMsg{query: q} }
		case tea.KeyEsc:
			if m.input.Focused() {
				m.input.Blur()
				return m, nil
			}
			return m, func() tea.Msg { return goToTableMsg{} }
		case tea.KeyTab:
			cmd := m.input.Focus()
			return m, cmd
		case tea.KeyCtrlC:
			return m, tea.Quit
		}
		if !m.input.Focused() {
			if msg.String() == "1" {
				return m, func() tea.Msg { return goToTableMsg{} }
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case goToFilterMsg:
		cmd := m.input.Focus()
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m filterPage) View() string {
	instructions := lipgloss.NewStyle().
		MarginTop(min(m.height/4, 10)).
		MarginBottom(2).
		Render("Filter reports by kind, query or file name. Leave empty to show all.")

	borderColor := lipgloss.Color("8")
	if m.input.Focused() {
		borderColor = lipgloss.Color("15")
	}
	input := lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.input.View())

	var help string
	if m.input.Focused() {
		help = helpBar([]string{"Enter: apply filter", "Esc: unfocus input"})
	} else {
		help = helpBar([]string{"1: back to reports", "Tab: focus input", "Esc: back"})
	}

	return pageLayout(lipgloss.JoinVertical(
		lipgloss.Center,
		renderMenu(1, m.width),
		instructions,
		input,
		lipgloss.NewStyle().MarginTop(2).Render(help),
	))
}
