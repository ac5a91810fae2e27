package setup

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m *wizardModel, msgs ...tea.KeyMsg) *wizardModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(*wizardModel)
	}
	return m
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	ctrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestInputField(t *testing.T) {
	field := newInputField("key", textinput.EchoPassword)
	assert.Equal(t, "key", field.input.Placeholder)
	assert.Equal(t, textinput.EchoPassword, field.input.EchoMode)
	assert.Equal(t, '•', field.input.EchoCharacter)
	assert.False(t, field.focused)

	field.focus()
	assert.True(t, field.focused)
	field.blur()
	assert.False(t, field.focused)

	field.setValue("  secret  ")
	assert.Equal(t, "secret", field.value())
}

func TestWizardIntro(t *testing.T) {
	t.Run("WithoutConfig", func(t *testing.T) {
		m := press(t, newWizardModel(false), enter)
		assert.Equal(t, stepOutputDir, m.step)
		assert.True(t, m.override)
		assert.True(t, m.fields[stepOutputDir].focused)
	})

	t.Run("WithConfig", func(t *testing.T) {
		m := press(t, newWizardModel(true), enter)
		assert.Equal(t, stepConfigChoice, m.step)
	})

	t.Run("Quit", func(t *testing.T) {
		m := newWizardModel(false)
		next, cmd := m.Update(runes("q"))
		assert.NotNil(t, cmd)
		assert.True(t, next.(*wizardModel).cancelled)
	})
}

func TestWizardConfigChoice(t *testing.T) {
	tests := []struct {
		key      string
		override bool
		step     wizardStep
	}{
		{"o", true, stepOutputDir},
		{"O", true, stepOutputDir},
		{"k", false, stepDone},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m := newWizardModel(true)
			m.step = stepConfigChoice
			m = press(t, m, runes(tt.key))
			assert.Equal(t, tt.step, m.step)
			assert.Equal(t, tt.override, m.override)
		})
	}
}

func TestWizardTypingQ(t *testing.T) {
	m := press(t, newWizardModel(false), enter, runes("q"))
	assert.False(t, m.cancelled)
	assert.Equal(t, "q", m.fields[stepOutputDir].value())
}

func TestWizardCompleteFlow(t *testing.T) {
	m := press(t, newWizardModel(false), enter)
	m = press(t, m, runes("~/reports"), enter)
	m = press(t, m, enter) // keep the default model
	m = press(t, m, runes("gem-key"), enter)
	m = press(t, m, runes("exa-key"), enter)
	m = press(t, m, enter) // no YouTube key
	m = press(t, m, runes("aai-12345"), enter)
	require.Equal(t, stepSummary, m.step)

	view := m.View()
	assert.Contains(t, view, "- Output directory: ~/reports")
	assert.Contains(t, view, "- Gemini model: (default)")
	assert.Contains(t, view, "- YouTube key: not set")
	assert.Contains(t, view, "- AssemblyAI key: ****2345")
	assert.NotContains(t, view, "gem-key")

	next, cmd := m.Update(enter)
	m = next.(*wizardModel)
	assert.NotNil(t, cmd)
	assert.Equal(t, stepDone, m.step)

	uc := m.userConfig()
	assert.Equal(t, "~/reports", uc.OutputDir)
	assert.Equal(t, "", uc.GeminiModel)
	assert.Equal(t, "gem-key", uc.GeminiKey)
	assert.Equal(t, "exa-key", uc.ExaKey)
	assert.Equal(t, "", uc.YouTubeKey)
	assert.Equal(t, "aai-12345", uc.AssemblyKey)
}

func TestWizardCtrlCWhileTyping(t *testing.T) {
	m := press(t, newWizardModel(false), enter, runes("abc"), ctrlC)
	assert.True(t, m.cancelled)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "not set", mask(""))
	assert.Equal(t, "****", mask("abc"))
	assert.Equal(t, "****wxyz", mask("abcdwxyz"))
}

func TestAskYesNo(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "YES\n": true, "\n": false, "no\n": false} {
		var out bytes.Buffer
		assert.Equal(t, want, askYesNo(strings.NewReader(in), &out, "ok? "), in)
		assert.Equal(t, "ok? ", out.String())
	}
}

func TestAppendTomlMCP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("model = \"x\"\n"), 0o644))
	require.NoError(t, appendTomlMCP(path, "/usr/local/bin/research"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "model = \"x\"\n\n[mcp_servers.researchkit]\ncommand = \"/usr/local/bin/research\"\nargs = [\"server\"]\nenv = {}\n", string(b))
}
