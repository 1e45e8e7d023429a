package ai

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/vertexai/genai"

	"github.com/derslik/derslik/internal/common"
)

// Generator is the model surface the pipeline depends on. Implementations
// return the raw response text; callers own parsing and validation.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateVision(ctx context.Context, prompt string, mimeType string, payload []byte) (string, error)
}

// VertexGenerator implements Generator over Vertex AI Gemini.
type VertexGenerator struct {
	client *genai.Client
	model  string
	temp   float32
	logger *slog.Logger
}

// NewVertexGenerator dials Vertex AI. Close the generator when done.
func NewVertexGenerator(ctx context.Context, cfg common.AIConfig, logger *slog.Logger) (*VertexGenerator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}
	return &VertexGenerator{
		client: client,
		model:  cfg.Model,
		temp:   cfg.Temperature,
		logger: logger,
	}, nil
}

func (g *VertexGenerator) Close() error {
	return g.client.Close()
}

func (g *VertexGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temp)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.Error("text generation failed", "model", g.model, "error", err)
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp)
}

func (g *VertexGenerator) GenerateVision(ctx context.Context, prompt string, mimeType string, payload []byte) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temp)

	resp, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: payload},
	)
	if err != nil {
		g.logger.Error("vision generation failed", "model", g.model, "mime_type", mimeType, "error", err)
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty model response")
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", fmt.Errorf("model response has no text parts")
	}
	return out, nil
}
