// Package llm wraps Gemini text generation behind a small interface.
package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"researchkit/internal/config"
)

// Generator produces a completion for a single user prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Gemini talks to Gemini through its OpenAI-compatible endpoint.
type Gemini struct {
	client      openai.Client
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int64
	Stream      bool
	// Echo receives streamed deltas as they arrive when set.
	Echo    io.Writer
	Timeout time.Duration
}

// NewGemini returns a streaming generator configured for transcript analysis.
func NewGemini(cfg config.GeminiConfig, opts ...option.RequestOption) *Gemini {
	all := append([]option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
	}, opts...)
	return &Gemini{
		client:      openai.NewClient(all...),
		Model:       cfg.Model,
		Temperature: 0.7,
		TopP:        0.95,
		MaxTokens:   8192,
		Stream:      true,
		Timeout:     5 * time.Minute,
	}
}

// NewAnalysisGemini returns the non-streaming generator used for single-file analysis.
func NewAnalysisGemini(cfg config.GeminiConfig, opts ...option.RequestOption) *Gemini {
	g := NewGemini(cfg, opts...)
	g.Model = cfg.AnalysisModel
	g.MaxTokens = 2048
	g.Stream = false
	return g
}

func (g *Gemini) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       g.Model,
		Temperature: openai.Float(g.Temperature),
		TopP:        openai.Float(g.TopP),
		MaxTokens:   openai.Int(g.MaxTokens),
	}
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	if g.Stream {
		return g.generateStream(ctx, prompt)
	}

	completion, err := g.client.Chat.Completions.New(ctx, g.params(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("gemini returned no choices")
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("gemini returned empty content")
	}
	return content, nil
}

func (g *Gemini) generateStream(ctx context.Context, prompt string) (string, error) {
	stream := g.client.Chat.Completions.NewStreaming(ctx, g.params(prompt))
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		sb.WriteString(delta)
		if g.Echo != nil {
			io.WriteString(g.Echo, delta)
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("stream error: %w", err)
	}
	return sb.String(), nil
}

// StripFences removes markdown code fences from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
