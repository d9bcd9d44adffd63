package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexClient holds the pre-configured table extraction model on Vertex AI.
type VertexClient struct {
	TableModel *genai.GenerativeModel
	modelName  string
	baseClient *genai.Client
}

// NewVertexClient creates a Vertex AI client for the given model.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	tableModel := baseClient.GenerativeModel(modelName)
	tableModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TableExtractionSystemPrompt)},
	}
	tableModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		TableModel: tableModel,
		modelName:  modelName,
		baseClient: baseClient,
	}, nil
}

// Generate sends the instruction and one inline document to the model and returns its text.
func (c *VertexClient) Generate(ctx context.Context, prompt string, document []byte, mimeType string) (string, error) {
	resp, err := c.TableModel.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mimeType, Data: document},
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content from gemini: %w", err)
	}
	return vertexText(resp), nil
}

// ModelName returns the pinned model identifier.
func (c *VertexClient) ModelName() string { return c.modelName }

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// vertexText concatenates the text parts of the first candidate.
func vertexText(resp *genai.GenerateContentResponse) string {
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
