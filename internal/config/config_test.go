package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyYAML(t *testing.T) {
	ac := Defaults()
	doc := `
output_dir: "~/research/results"
database:
  path: "/tmp/rk.db"
gemini:
  model: "gemini-2.5-flash"
  delay_seconds: 3
youtube:
  max_results: 5
  proxy:
    webshare:
      username: " user "
      password: "pass"
exa:
  num_results: 4
assemblyai:
  poll_seconds: 2
`
	require.NoError(t, applyYAML(&ac, []byte(doc)))

	assert.Equal(t, "~/research/results", ac.OutputDir)
	assert.Equal(t, "/tmp/rk.db", ac.DatabasePath)
	assert.Equal(t, "gemini-2.5-flash", ac.Gemini.Model)
	assert.Equal(t, "gemini-2.0-flash-thinking-exp-01-21", ac.Gemini.AnalysisModel)
	assert.Equal(t, 3, ac.Gemini.DelaySeconds)
	assert.Equal(t, 5, ac.YouTube.MaxResults)
	assert.Equal(t, "user", ac.YouTube.WebshareUsername)
	assert.Equal(t, "pass", ac.YouTube.WebsharePassword)
	assert.Equal(t, 4, ac.Exa.NumResults)
	assert.Equal(t, 2, ac.AssemblyAI.PollSeconds)
}

func TestApplyYAMLIgnoresInvalidValues(t *testing.T) {
	ac := Defaults()
	require.NoError(t, applyYAML(&ac, []byte("gemini:\n  delay_seconds: -1\nyoutube:\n  max_results: many\n")))
	assert.Equal(t, 10, ac.Gemini.DelaySeconds)
	assert.Equal(t, 20, ac.YouTube.MaxResults)
}

func TestEnvOverridesFile(t *testing.T) {
	ac := Defaults()
	require.NoError(t, applyYAML(&ac, []byte("exa:\n  api_key: from-file\n")))
	t.Setenv(EnvExa, "from-env")
	t.Setenv(EnvGemini, "")
	applyEnv(&ac)

	assert.Equal(t, "from-env", ac.Exa.APIKey)
	assert.Equal(t, "", ac.Gemini.APIKey)
}

func TestRequire(t *testing.T) {
	ac := Defaults()
	err := ac.RequireGemini()
	require.ErrorIs(t, err, ErrMissingKey)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	ac.Gemini.APIKey = "k"
	assert.NoError(t, ac.RequireGemini())

	assert.ErrorContains(t, ac.RequireExa(), "EXA_API_KEY")
	assert.ErrorContains(t, ac.RequireYouTube(), "YOUTUBE_API_KEY")
	assert.ErrorContains(t, ac.RequireAssemblyAI(), "ASSEMBLYAI_API_KEY")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RK_TEST_DIR", "/var/rk")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "x", "y"), ExpandPath("~/x/y"))
	assert.Equal(t, "/var/rk/out", ExpandPath("$RK_TEST_DIR/out"))
}

func TestWriteConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "researchkit", "config.yaml")
	uc := UserConfig{
		OutputDir:   "out",
		GeminiModel: "gemini-2.5-pro",
		GeminiKey:   "g-key",
		ExaKey:      "e-key",
	}
	require.NoError(t, WriteConfig(path, uc))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "# ResearchKit configuration\n"))

	ac := Defaults()
	require.NoError(t, applyYAML(&ac, b))
	assert.Equal(t, "out", ac.OutputDir)
	assert.Equal(t, "gemini-2.5-pro", ac.Gemini.Model)
	assert.Equal(t, "g-key", ac.Gemini.APIKey)
	assert.Equal(t, "e-key", ac.Exa.APIKey)
	assert.Equal(t, "", ac.YouTube.APIKey)
}

func TestWriteConfigKeepsDatabasePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: \"/data/keep.db\"\n"), 0o600))

	require.NoError(t, BackupFile(path))
	require.NoError(t, WriteConfig(path, UserConfig{OutputDir: "results"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `path: "/data/keep.db"`)

	matches, err := filepath.Glob(path + ".bak-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
