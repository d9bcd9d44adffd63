package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// StudioClient talks to Gemini through the Google AI Studio API with an API key.
// A client is opened per call so that a missing key only fails the call, never startup.
type StudioClient struct {
	APIKey string
	Model  string
}

func NewStudioClient(apiKey, model string) *StudioClient {
	return &StudioClient{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

// Generate sends the instruction and one inline document to the model and returns its text.
func (c *StudioClient) Generate(ctx context.Context, prompt string, document []byte, mimeType string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.APIKey))
	if err != nil {
		return "", fmt.Errorf("genai.NewClient: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(c.Model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TableExtractionSystemPrompt)},
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: document},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return studioText(resp), nil
}

// ModelName returns the pinned model identifier.
func (c *StudioClient) ModelName() string { return c.Model }

func studioText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
