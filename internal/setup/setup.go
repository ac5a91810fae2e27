package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"researchkit/internal/config"
)

// Run executes the interactive setup flow:
// 1) greet and decide whether to replace an existing config
// 2) ask for the output directory and Gemini model
// 3) ask for the API keys, each optional
// 4) write the config and offer MCP registration for Codex
func Run(ctx context.Context) error {
	cfgPath, err := config.DefaultConfigPath()
	if err != nil {
		return err
	}
	cfgExists := fileExists(cfgPath)

	wiz := newWizardModel(cfgExists)
	p := tea.NewProgram(wiz, tea.WithContext(ctx))
	res, err := p.Run()
	if err != nil {
		return err
	}
	wm, ok := res.(*wizardModel)
	if !ok || wm.cancelled {
		return errors.New("setup cancelled")
	}
	if !wm.override {
		fmt.Printf("\nKeeping existing config at %s\n", cfgPath)
		return nil
	}

	if cfgExists {
		_ = config.BackupFile(cfgPath)
	}
	if err := config.WriteConfig(cfgPath, wm.userConfig()); err != nil {
		return err
	}
	fmt.Printf("\nConfig written to %s\n", cfgPath)

	maybeConfigureMCP(os.Stdin, os.Stdout)

	fmt.Println("\nSetup complete!")
	fmt.Println("- Keys in the environment or a .env file override the config file")
	fmt.Println("- Run 'research server' to expose the tools to your LLM via MCP")
	return nil
}

// -------------- Bubble Tea Wizard --------------
type wizardStep int

const (
	stepIntro wizardStep = iota
	stepConfigChoice
	stepOutputDir
	stepModel
	stepGeminiKey
	stepExaKey
	stepYouTubeKey
	stepAssemblyKey
	stepSummary
	stepDone
)

type inputField struct {
	input   textinput.Model
	focused bool
}

func newInputField(placeholder string, echo textinput.EchoMode) *inputField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.EchoMode = echo
	if echo == textinput.EchoPassword {
		in.EchoCharacter = '•'
	}
	return &inputField{input: in}
}

func (f *inputField) focus() tea.Cmd {
	f.focused = true
	return f.input.Focus()
}

func (f *inputField) blur() {
	f.focused = false
	f.input.Blur()
}

func (f *inputField) value() string { return strings.TrimSpace(f.input.Value()) }

func (f *inputField) setValue(s string) { f.input.SetValue(s) }

type wizardModel struct {
	step      wizardStep
	hasCfg    bool
	override  bool
	cancelled bool

	fields map[wizardStep]*inputField
}

func newWizardModel(hasCfg bool) *wizardModel {
	defaults := config.Defaults()
	fields := map[wizardStep]*inputField{
		stepOutputDir:   newInputField(defaults.OutputDir, textinput.EchoNormal),
		stepModel:       newInputField(defaults.Gemini.Model, textinput.EchoNormal),
		stepGeminiKey:   newInputField("Gemini API key (optional)", textinput.EchoPassword),
		stepExaKey:      newInputField("Exa API key (optional)", textinput.EchoPassword),
		stepYouTubeKey:  newInputField("YouTube Data API key (optional)", textinput.EchoPassword),
		stepAssemblyKey: newInputField("AssemblyAI API key (optional)", textinput.EchoPassword),
	}
	return &wizardModel{step: stepIntro, hasCfg: hasCfg, fields: fields}
}

func (m *wizardModel) Init() tea.Cmd { return nil }

func (m *wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Type == tea.KeyCtrlC {
		m.cancelled = true
		return m, tea.Quit
	}
	// q only quits outside text entry
	if _, typing := m.fields[m.step]; !typing && key.Type == tea.KeyRunes && strings.ToLower(string(key.Runes)) == "q" {
		m.cancelled = true
		return m, tea.Quit
	}

	switch m.step {
	case stepIntro:
		if key.Type == tea.KeyEnter {
			if m.hasCfg {
				m.step = stepConfigChoice
				return m, nil
			}
			m.override = true
			return m, m.moveTo(stepOutputDir)
		}
	case stepConfigChoice:
		if key.Type == tea.KeyRunes {
			switch strings.ToLower(string(key.Runes)) {
			case "o":
				m.override = true
				return m, m.moveTo(stepOutputDir)
			case "k":
				m.override = false
				m.step = stepDone
				return m, tea.Quit
			}
		}
	case stepSummary:
		if key.Type == tea.KeyEnter {
			m.step = stepDone
			return m, tea.Quit
		}
	default:
		f := m.fields[m.step]
		if f == nil {
			return m, nil
		}
		if key.Type == tea.KeyEnter {
			return m, m.moveTo(m.step + 1)
		}
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *wizardModel) moveTo(step wizardStep) tea.Cmd {
	if f := m.fields[m.step]; f != nil {
		f.blur()
	}
	m.step = step
	if f := m.fields[step]; f != nil {
		return f.focus()
	}
	return nil
}

var fieldPrompts = map[wizardStep]string{
	stepOutputDir:   "Where should reports be written?",
	stepModel:       "Which Gemini model should summaries use?",
	stepGeminiKey:   "Gemini API key, used by summaries, analysis and the browse agent.",
	stepExaKey:      "Exa API key, used by web and tweet search.",
	stepYouTubeKey:  "YouTube Data API key, used by video search.",
	stepAssemblyKey: "AssemblyAI API key, used by audio transcription.",
}

func (m *wizardModel) View() string {
	b := &strings.Builder{}
	switch m.step {
	case stepIntro:
		fmt.Fprintln(b, "Welcome to ResearchKit setup!")
		fmt.Fprintln(b, "This wizard writes your output directory, model and API keys to a config file.")
		fmt.Fprintln(b, "\nPress Enter to begin · q to quit")
	case stepConfigChoice:
		fmt.Fprintln(b, "Found an existing config.")
		fmt.Fprintln(b, "Override it (will create a .bak) or keep it?")
		fmt.Fprintln(b, "[o] Override    [k] Keep existing")
	case stepSummary:
		uc := m.userConfig()
		fmt.Fprintln(b, "Summary")
		fmt.Fprintf(b, "- Output directory: %s\n", orDefault(uc.OutputDir, "(default)"))
		fmt.Fprintf(b, "- Gemini model: %s\n", orDefault(uc.GeminiModel, "(default)"))
		fmt.Fprintf(b, "- Gemini key: %s\n", mask(uc.GeminiKey))
		fmt.Fprintf(b, "- Exa key: %s\n", mask(uc.ExaKey))
		fmt.Fprintf(b, "- YouTube key: %s\n", mask(uc.YouTubeKey))
		fmt.Fprintf(b, "- AssemblyAI key: %s\n", mask(uc.AssemblyKey))
		fmt.Fprintln(b, "\nPress Enter to write the config · Ctrl+C to cancel")
	default:
		if f := m.fields[m.step]; f != nil {
			fmt.Fprintf(b, "Step %d of %d\n", int(m.step-stepOutputDir)+1, len(m.fields))
			fmt.Fprintln(b, fieldPrompts[m.step])
			fmt.Fprintln(b, f.input.View())
			fmt.Fprintln(b, "\nPress Enter to continue (leave empty to skip)")
		}
	}
	return b.String()
}

func (m *wizardModel) userConfig() config.UserConfig {
	return config.UserConfig{
		OutputDir:   m.fields[stepOutputDir].value(),
		GeminiModel: m.fields[stepModel].value(),
		GeminiKey:   m.fields[stepGeminiKey].value(),
		ExaKey:      m.fields[stepExaKey].value(),
		YouTubeKey:  m.fields[stepYouTubeKey].value(),
		AssemblyKey: m.fields[stepAssemblyKey].value(),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func mask(key string) string {
	switch {
	case key == "":
		return "not set"
	case len(key) <= 4:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// -------------- MCP client integration --------------

func maybeConfigureMCP(in io.Reader, out io.Writer) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	codexPath := filepath.Join(home, ".codex", "config.toml")
	b, err := os.ReadFile(codexPath)
	if err != nil || strings.Contains(string(b), "[mcp_servers.researchkit]") {
		return
	}
	if !askYesNo(in, out, "\nDetected ~/.codex/config.toml. Add the ResearchKit MCP server there? [y/N]: ") {
		return
	}
	exe, _ := os.Executable()
	_ = config.BackupFile(codexPath)
	if err := appendTomlMCP(codexPath, exe); err != nil {
		fmt.Fprintf(out, "Failed to update %s: %v\n", codexPath, err)
		return
	}
	fmt.Fprintln(out, "Added MCP server to ~/.codex/config.toml")
}

func askYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	s, _ := bufio.NewReader(in).ReadString('\n')
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func appendTomlMCP(path, exe string) error {
	snippet := fmt.Sprintf("\n[mcp_servers.researchkit]\ncommand = %q\nargs = [\"server\"]\nenv = {}\n", exe)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(snippet)
	return err
}
