package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type detailPage struct {
	width        int
	height       int
	viewport     viewport.Model
	selectedItem *reportDetail
}

func (m detailPage) Init() tea.Cmd {
	return nil
}

func (m detailPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, func() tea.Msg { return goToTableMsg{} }
		case "k", "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "j", "down":
			m.viewport.ScrollDown(1)
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width - 4
		m.height = msg.Height - 4
		if m.selectedItem != nil {
			m.viewport = setupViewport(m.width, m.height, m.selectedItem)
		}
		return m, nil
	case goToDetailMsg:
		m.selectedItem = msg.item
		m.viewport = setupViewport(m.width, m.height, m.selectedItem)
		return m, nil
	}

	return m, nil
}

func (m detailPage) View() string {
	if m.selectedItem == nil {
		return "No report selected"
	}
	item := m.selectedItem

	lightBlue := lightBlue()
	darkBlue := darkBlue()

	titleStyle := lipgloss.NewStyle().
		Foreground(darkBlue).
		Bold(true).
		MarginBottom(1).
		Width(max(10, m.width-8))
	pathStyle := lipgloss.NewStyle().
		Foreground(lightBlue).
		Italic(true).
		Width(max(10, m.width-8))
	metadataStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		MarginBottom(1)

	title := item.query
	if title == "" {
		title = "Untitled report"
	}
	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		pathStyle.Render(item.path),
		metadataStyle.Render(fmt.Sprintf("Kind: %s • Items: %d • Date: %s",
			item.kind, item.items, item.createdAt.Local().Format("2006-01-02 15:04"))),
	)

	scroll := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Render(fmt.Sprintf("Scroll: %d%%", int(clamp01(m.viewport.ScrollPercent())*100)))

	help := lipgloss.NewStyle().MarginTop(1).Render(helpBar([]string{
		"j/k: scroll",
		"g/G: top/bottom",
		"esc/q: back",
	}))

	content := lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), scroll, help)
	border := lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(darkBlue)
	return pageLayout(border.Render(content))
}

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}

func setupViewport(width, height int, item *reportDetail) viewport.Model {
	contentWidth := max(20, width)
	// title, path, metadata, scroll info and help
	viewportHeight := max(5, height-10)

	vp := viewport.New(contentWidth, viewportHeight)
	vp.SetContent(renderContent(item, contentWidth))
	return vp
}

func renderContent(item *reportDetail, width int) string {
	if item.err != nil {
		return fmt.Sprintf("Could not read report: %v", item.err)
	}
	if strings.TrimSpace(item.content) == "" {
		return "Empty report"
	}
	if !isMarkdown(item.path) {
		return item.content
	}
	return renderMarkdown(item.content, width)
}

// renderMarkdown renders with Glamour, falling back to the raw text.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(width),
		glamour.WithStandardStyle("dark"),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
