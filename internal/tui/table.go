package tui

import (
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"researchkit/internal/reportdb"
)

type tablePage struct {
	items  []reportdb.Report
	filter string
	table  *table.Table

	ready       bool
	cursor      int
	currentPage int
	totalPages  int
	tableWidth  int
	tableHeight int
	kindWidth   int
	queryWidth  int
	itemsWidth  int
	dateWidth   int
	fileWidth   int
	pageSize    int
}

func TablePage(items []reportdb.Report, cursor int, pageSize int, currentPage int) tablePage {
	return tablePage{
		items:       items,
		cursor:      cursor,
		pageSize:    pageSize,
		currentPage: currentPage,
		totalPages:  pages(len(items), pageSize),
	}
}

func pages(n, size int) int {
	if size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// withItems swaps the listed reports, keeping the layout.
func (m tablePage) withItems(items []reportdb.Report, filter string) tablePage {
	m.items = items
	m.filter = filter
	m.cursor = 0
	m.currentPage = 0
	m.totalPages = pages(len(items), m.pageSize)
	if m.ready {
		m.updateTableRows()
	}
	return m
}

func (m tablePage) selected() (reportdb.Report, bool) {
	i := m.currentPage*m.pageSize + m.cursor
	if i < 0 || i >= len(m.items) {
		return reportdb.Report{}, false
	}
	return m.items[i], true
}

func (m tablePage) Init() tea.Cmd {
	return nil
}

func (m tablePage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "enter":
			if r, ok := m.selected(); ok {
				return m, func() tea.Msg { return goToDetailMsg{item: reportToDetail(r)} }
			}
			return m, nil
		case "2", "/":
			return m, func() tea.Msg { return goToFilterMsg{} }
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			} else if m.currentPage > 0 {
				m.currentPage--
				m.cursor = m.pageSize - 1
			}
			m.updateTableRows()
			return m, nil
		case "j", "down":
			itemsOnCurrentPage := min(m.pageSize, len(m.items)-m.currentPage*m.pageSize)
			if m.cursor < itemsOnCurrentPage-1 {
				m.cursor++
			} else if m.currentPage < m.totalPages-1 {
				m.currentPage++
				m.cursor = 0
			}
			m.updateTableRows()
			return m, nil
		case "g":
			m.currentPage = 0
			m.cursor = 0
			m.updateTableRows()
			return m, nil
		case "G":
			if len(m.items) == 0 {
				return m, nil
			}
			m.currentPage = m.totalPages - 1
			lastPageItems := len(m.items) % m.pageSize
			if lastPageItems == 0 {
				lastPageItems = m.pageSize
			}
			m.cursor = lastPageItems - 1
			m.updateTableRows()
			return m, nil
		case "l":
			if m.currentPage < m.totalPages-1 {
				m.currentPage++
				m.cursor = 0
				m.updateTableRows()
				// border rendering breaks without a full redraw
				return m, tea.ClearScreen
			}
			return m, nil
		case "h":
			if m.currentPage > 0 {
				m.currentPage--
				m.cursor = 0
				m.updateTableRows()
				return m, tea.ClearScreen
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.tableWidth = msg.Width - 2
		m.tableHeight = msg.Height
		m.configureTable(msg.Width, msg.Height-4)
		m.ready = true

		return m, tea.ClearScreen
	}

	return m, nil
}

func (m tablePage) View() string {
	if !m.ready {
		return "...Loading"
	}

	menu := renderMenu(0, m.tableWidth)
	if len(m.items) == 0 {
		msg := "No reports found"
		if m.filter != "" {
			msg += " matching " + strconv.Quote(m.filter)
		}
		return pageLayout(lipgloss.JoinVertical(lipgloss.Left, menu, msg, helpBar([]string{"2: filter", "q: quit"})))
	}

	help := helpBar([]string{
		"j/k: move",
		"l/h: page " + strconv.Itoa(m.currentPage+1) + "/" + strconv.Itoa(m.totalPages),
		"g/G: home/end",
		"Space: open report",
		"2: filter",
		"q: quit",
	})
	return pageLayout(lipgloss.JoinVertical(lipgloss.Left, menu, m.table.Render(), help))
}

func (m *tablePage) updateTableRows() {
	headers := []string{
		truncateString("Kind", m.kindWidth),
		truncateString("Query", m.queryWidth),
		truncateString("Items", m.itemsWidth),
		truncateString("Date", m.dateWidth),
		truncateString("File", m.fileWidth),
	}

	var rows [][]string
	startIdx := m.currentPage * m.pageSize
	endIdx := min(startIdx+m.pageSize, len(m.items))
	for i := startIdx; i < endIdx; i++ {
		r := m.items[i]
		query := r.Query
		if query == "" {
			query = "-"
		}
		rows = append(rows, []string{
			truncateString(r.Kind, m.kindWidth),
			truncateString(query, m.queryWidth),
			truncateString(strconv.Itoa(r.Items), m.itemsWidth),
			truncateString(r.CreatedAt.Local().Format("2006-01-02 15:04"), m.dateWidth),
			truncateString(filepath.Base(r.Path), m.fileWidth),
		})
	}

	if n := len(rows); n > 0 {
		m.cursor = max(0, min(m.cursor, n-1))
	}

	lightBlue := lightBlue()
	darkBlue := darkBlue()
	headerStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(darkBlue).
		Align(lipgloss.Center)
	cursor := m.cursor

	m.table = table.New().
		Width(m.tableWidth).
		Border(lipgloss.ThickBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(darkBlue)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row == cursor {
				return lipgloss.NewStyle().
					Padding(0, 1).
					Background(lightBlue).
					Foreground(lipgloss.Color("0"))
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// configureTable sizes pages and columns to the terminal.
func (m *tablePage) configureTable(width, height int) {
	m.pageSize = max(5, height-6)
	m.totalPages = pages(len(m.items), m.pageSize)

	if m.currentPage >= m.totalPages {
		m.currentPage = max(0, m.totalPages-1)
	}
	if global := m.currentPage*m.pageSize + m.cursor; global >= len(m.items) && len(m.items) > 0 {
		global = len(m.items) - 1
		m.currentPage = global / m.pageSize
		m.cursor = global % m.pageSize
	}

	m.kindWidth = 14
	m.itemsWidth = 5
	m.dateWidth = 16
	// 2 chars per side of border plus 3 of padding for each of the 5 columns
	borderPaddingWidth := 4 + 3*5
	remaining := max(0, width-m.kindWidth-m.itemsWidth-m.dateWidth-borderPaddingWidth)
	m.queryWidth = max(20, remaining*55/100)
	m.fileWidth = max(20, remaining*45/100)

	m.updateTableRows()
}
