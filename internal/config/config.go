package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingKey is wrapped by the Require* helpers.
var ErrMissingKey = errors.New("missing API key")

const (
	EnvGemini     = "GEMINI_API_KEY"
	EnvExa        = "EXA_API_KEY"
	EnvYouTube    = "YOUTUBE_API_KEY"
	EnvAssemblyAI = "ASSEMBLYAI_API_KEY"
)

type ConfigLoad func() (AppConfig, error)

func AppConfigLoader() ConfigLoad {
	return LoadAppConfig
}

type GeminiConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	AnalysisModel string
	DelaySeconds  int
}

type YouTubeConfig struct {
	APIKey     string
	MaxResults int
	// Optional Webshare rotating proxy for transcript fetching
	WebshareUsername string
	WebsharePassword string
}

type ExaConfig struct {
	APIKey     string
	BaseURL    string
	NumResults int
}

type AssemblyAIConfig struct {
	APIKey      string
	BaseURL     string
	PollSeconds int
}

// AppConfig is passed explicitly to every command.
type AppConfig struct {
	OutputDir    string
	DatabasePath string

	Gemini     GeminiConfig
	YouTube    YouTubeConfig
	Exa        ExaConfig
	AssemblyAI AssemblyAIConfig
}

// Defaults returns the configuration used when no file or environment is present.
func Defaults() AppConfig {
	return AppConfig{
		OutputDir:    "results",
		DatabasePath: FallbackDBPath(),
		Gemini: GeminiConfig{
			BaseURL:       "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:         "gemini-2.0-pro-exp-02-05",
			AnalysisModel: "gemini-2.0-flash-thinking-exp-01-21",
			DelaySeconds:  10,
		},
		YouTube: YouTubeConfig{
			MaxResults: 20,
		},
		Exa: ExaConfig{
			BaseURL:    "https://api.exa.ai",
			NumResults: 10,
		},
		AssemblyAI: AssemblyAIConfig{
			BaseURL:     "https://api.assemblyai.com",
			PollSeconds: 10,
		},
	}
}

// LoadAppConfig merges defaults, ~/.config/researchkit/config.yaml, a .env file
// in the working directory and the process environment, in that order.
func LoadAppConfig() (AppConfig, error) {
	ac := Defaults()
	// A missing .env is normal; variables already set in the environment win.
	_ = godotenv.Load()

	if cfgPath, err := DefaultConfigPath(); err == nil {
		if b, err := os.ReadFile(cfgPath); err == nil {
			if err := applyYAML(&ac, b); err != nil {
				return ac, fmt.Errorf("failed to parse %s: %w", cfgPath, err)
			}
		}
	}
	applyEnv(&ac)
	ac.OutputDir = ExpandPath(ac.OutputDir)
	ac.DatabasePath = ExpandPath(ac.DatabasePath)
	return ac, nil
}

func applyYAML(ac *AppConfig, b []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	if v, ok := raw["output_dir"].(string); ok && strings.TrimSpace(v) != "" {
		ac.OutputDir = strings.TrimSpace(v)
	}
	if db, ok := raw["database"].(map[string]any); ok {
		if p, ok := db["path"].(string); ok && strings.TrimSpace(p) != "" {
			ac.DatabasePath = strings.TrimSpace(p)
		}
	}
	if g, ok := raw["gemini"].(map[string]any); ok {
		setString(&ac.Gemini.APIKey, g["api_key"])
		setString(&ac.Gemini.BaseURL, g["base_url"])
		setString(&ac.Gemini.Model, g["model"])
		setString(&ac.Gemini.AnalysisModel, g["analysis_model"])
		setPositiveInt(&ac.Gemini.DelaySeconds, g["delay_seconds"])
	}
	if yt, ok := raw["youtube"].(map[string]any); ok {
		setString(&ac.YouTube.APIKey, yt["api_key"])
		setPositiveInt(&ac.YouTube.MaxResults, yt["max_results"])
		if proxy, ok := yt["proxy"].(map[string]any); ok {
			if ws, ok := proxy["webshare"].(map[string]any); ok {
				setString(&ac.YouTube.WebshareUsername, ws["username"])
				setString(&ac.YouTube.WebsharePassword, ws["password"])
			}
		}
	}
	if exa, ok := raw["exa"].(map[string]any); ok {
		setString(&ac.Exa.APIKey, exa["api_key"])
		setString(&ac.Exa.BaseURL, exa["base_url"])
		setPositiveInt(&ac.Exa.NumResults, exa["num_results"])
	}
	if aai, ok := raw["assemblyai"].(map[string]any); ok {
		setString(&ac.AssemblyAI.APIKey, aai["api_key"])
		setString(&ac.AssemblyAI.BaseURL, aai["base_url"])
		setPositiveInt(&ac.AssemblyAI.PollSeconds, aai["poll_seconds"])
	}
	return nil
}

func applyEnv(ac *AppConfig) {
	setEnv(&ac.Gemini.APIKey, EnvGemini)
	setEnv(&ac.Exa.APIKey, EnvExa)
	setEnv(&ac.YouTube.APIKey, EnvYouTube)
	setEnv(&ac.AssemblyAI.APIKey, EnvAssemblyAI)
}

func setEnv(dst *string, name string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*dst = v
	}
}

func setString(dst *string, v any) {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		*dst = strings.TrimSpace(s)
	}
}

// yaml.v3 decodes integers as int, but accept floats written as 10.0 too.
func setPositiveInt(dst *int, v any) {
	switch n := v.(type) {
	case int:
		if n > 0 {
			*dst = n
		}
	case float64:
		if int(n) > 0 {
			*dst = int(n)
		}
	}
}

// RequireGemini fails fast when the Gemini key is absent.
func (ac AppConfig) RequireGemini() error { return requireKey(ac.Gemini.APIKey, EnvGemini) }

func (ac AppConfig) RequireExa() error { return requireKey(ac.Exa.APIKey, EnvExa) }

func (ac AppConfig) RequireYouTube() error { return requireKey(ac.YouTube.APIKey, EnvYouTube) }

func (ac AppConfig) RequireAssemblyAI() error {
	return requireKey(ac.AssemblyAI.APIKey, EnvAssemblyAI)
}

func requireKey(value, env string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: please set the %s environment variable", ErrMissingKey, env)
	}
	return nil
}

func FallbackDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "researchkit.db"
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "ResearchKit", "researchkit.db")
	}
	return filepath.Join(home, ".local", "share", "researchkit", "researchkit.db")
}

// DefaultConfigPath returns ~/.config/researchkit/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "researchkit", "config.yaml"), nil
}

// ExpandPath expands leading ~ and environment variables in a filesystem path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
