package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func lightBlue() lipgloss.Color {
	return lipgloss.Color("#87CEEB")
}

func darkBlue() lipgloss.Color {
	return lipgloss.Color("#4682B4")
}

func helpBar(items []string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Render(strings.Join(items, " • "))
}

func pageLayout(content string) string {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(content)
}

func renderMenu(activeItem int, width int) string {
	divider := strings.Repeat("─", max(0, width))

	labels := []string{"Reports", "Filter"}
	styled := make([]string, 0, len(labels))
	for index, label := range labels {
		var style lipgloss.Style
		content := label + " [" + strconv.Itoa(index+1) + "]"
		if activeItem == index {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Underline(true)
		} else {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		}
		full := style.Render(content)
		if index != len(labels)-1 {
			full += " | "
		}
		styled = append(styled, full)
	}

	menu := lipgloss.JoinHorizontal(lipgloss.Left, styled...)
	return lipgloss.JoinVertical(lipgloss.Left, menu, divider)
}
