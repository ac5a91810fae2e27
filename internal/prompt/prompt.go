// Package prompt asks the user for a single line of input.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var (
	ErrEmpty     = errors.New("no input given")
	ErrCancelled = errors.New("input cancelled")
)

// Ask shows label and returns the trimmed answer. On a terminal it runs a
// Bubble Tea text input that re-asks on empty answers; otherwise it reads
// one line from stdin.
func Ask(ctx context.Context, label string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return askTUI(ctx, label)
	}
	return AskLine(os.Stdin, os.Stdout, label)
}

// AskLine prints label to out and reads a single line from in.
func AskLine(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmpty
	}
	return line, nil
}

func askTUI(ctx context.Context, label string) (string, error) {
	res, err := tea.NewProgram(newModel(label), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", err
	}
	m := res.(*model)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.answer, nil
}

type model struct {
	label     string
	input     textinput.Model
	answer    string
	errMsg    string
	cancelled bool
}

func newModel(label string) *model {
	in := textinput.New()
	in.Focus()
	return &model{label: label, input: in}
}

func (m *model) Init() tea.Cmd { return textinput.Blink }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			v := strings.TrimSpace(m.input.Value())
			if v == "" {
				m.errMsg = "Please enter a value."
				return m, nil
			}
			m.answer = v
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	if m.answer != "" || m.cancelled {
		return ""
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s%s\n", m.label, m.input.View())
	if m.errMsg != "" {
		fmt.Fprintln(b, m.errMsg)
	}
	return b.String()
}
