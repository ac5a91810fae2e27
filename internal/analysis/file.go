package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"researchkit/internal/llm"
)

// AnalyzeFile analyzes a plain transcript file and writes the model output
// verbatim to <outDir>/<base name>.md, returning that path.
func AnalyzeFile(ctx context.Context, gen llm.Generator, path, outDir string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read transcript file: %w", err)
	}
	text, err := gen.Generate(ctx, BuildFilePrompt(string(b)))
	if err != nil {
		return "", fmt.Errorf("failed to get analysis: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(outDir, base+".md")
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return "", err
	}
	return out, nil
}
