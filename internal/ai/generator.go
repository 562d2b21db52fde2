// Package ai holds the two model-backed helpers: the custom sticker
// resolution check and the cart recommendation list.  Both are
// best-effort.  Failures resolve to a safe default and are never
// returned to the caller as errors.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Request is one JSON-constrained model call.  Image is optional.
type Request struct {
	Prompt    string
	Image     []byte
	ImageMIME string
	Schema    *genai.Schema
}

// Generator returns the model's JSON answer for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GenAIGenerator calls Gemini through the genai SDK.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a Gemini-backed generator.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image, req.ImageMIME))
	}
	temp := float32(0.2)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
		Temperature:      &temp,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

// Unavailable is the Generator used when no API key is configured.
// Every call fails, so both helpers fall back to their defaults.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Request) (string, error) {
	return "", errors.New("AI helper not configured")
}
