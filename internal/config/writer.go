package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UserConfig is what the setup wizard collects.
type UserConfig struct {
	OutputDir    string
	DatabasePath string
	GeminiModel  string
	GeminiKey    string
	ExaKey       string
	YouTubeKey   string
	AssemblyKey  string
}

// WriteConfig writes the user configuration to path, creating parent directories.
func WriteConfig(path string, uc UserConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Keep a database path chosen earlier unless the wizard supplied a new one.
	dbPath := uc.DatabasePath
	if prev, err := loadExistingConfig(path); err == nil && strings.TrimSpace(dbPath) == "" {
		if db, ok := prev["database"].(map[string]any); ok {
			if v, ok := db["path"].(string); ok {
				dbPath = v
			}
		}
	}

	return os.WriteFile(path, []byte(renderConfig(uc, dbPath)), 0o600)
}

// Rendered by hand so the file carries comments for the user.
func renderConfig(uc UserConfig, dbPath string) string {
	var sb strings.Builder
	sb.WriteString("# ResearchKit configuration\n")
	sb.WriteString("# API keys set in the environment or a .env file take precedence.\n")

	if strings.TrimSpace(uc.OutputDir) != "" {
		sb.WriteString(fmt.Sprintf("output_dir: %q\n", strings.TrimSpace(uc.OutputDir)))
	}
	if strings.TrimSpace(dbPath) != "" {
		sb.WriteString("database:\n")
		sb.WriteString(fmt.Sprintf("  path: %q\n", strings.TrimSpace(dbPath)))
	}

	if strings.TrimSpace(uc.GeminiModel) != "" || strings.TrimSpace(uc.GeminiKey) != "" {
		sb.WriteString("gemini:\n")
		writeField(&sb, "model", uc.GeminiModel)
		writeField(&sb, "api_key", uc.GeminiKey)
	}
	if strings.TrimSpace(uc.ExaKey) != "" {
		sb.WriteString("exa:\n")
		writeField(&sb, "api_key", uc.ExaKey)
	}
	if strings.TrimSpace(uc.YouTubeKey) != "" {
		sb.WriteString("youtube:\n")
		writeField(&sb, "api_key", uc.YouTubeKey)
	}
	if strings.TrimSpace(uc.AssemblyKey) != "" {
		sb.WriteString("assemblyai:\n")
		writeField(&sb, "api_key", uc.AssemblyKey)
	}
	return sb.String()
}

func writeField(sb *strings.Builder, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		sb.WriteString(fmt.Sprintf("  %s: %q\n", key, v))
	}
}

func loadExistingConfig(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// BackupFile creates a backup of the specified file with a timestamp
func BackupFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ts := time.Now().Format("20060102-150405")
	bak := path + ".bak-" + ts
	return os.WriteFile(bak, b, 0o600)
}
