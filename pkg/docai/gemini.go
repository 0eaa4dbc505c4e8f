// Package docai implements the document-understanding fallback on top of
// Gemini. It asks the model for a strict JSON array of transaction entities
// extracted from an arbitrary statement document.
package docai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/parser"
)

const extractionPrompt = "You are a financial statement extraction service.\n\n" +
	"Task:\n" +
	"- Extract ALL transactions from the attached document.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output a JSON array of objects.\n\n" +
	"Each object must have these fields:\n" +
	"- \"type\": always the string \"transaction\"\n" +
	"- \"confidence\": number between 0 and 1, your certainty for this entry\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
	"- \"description\": string, the transaction narrative as printed\n" +
	"- \"amount\": string, signed decimal, negative for money OUT\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"[\" and end with \"]\".\n"

// GeminiExtractor implements parser.Extractor against the Gemini API.
type GeminiExtractor struct {
	apiKey string
	model  string
}

// NewGeminiExtractor creates an extractor for the given API key and model.
func NewGeminiExtractor(apiKey, model string) *GeminiExtractor {
	return &GeminiExtractor{apiKey: apiKey, model: model}
}

var _ parser.Extractor = (*GeminiExtractor)(nil)

type rawEntity struct {
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
}

// ExtractEntities sends the document to the model and decodes the entity list.
func (g *GeminiExtractor) ExtractEntities(ctx context.Context, data []byte, mimeType string) ([]parser.Entity, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     data,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var raw []rawEntity
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}

	entities := make([]parser.Entity, 0, len(raw))
	for _, e := range raw {
		entities = append(entities, parser.Entity{
			Type:       e.Type,
			Confidence: e.Confidence,
			Fields: map[string]string{
				"date":        e.Date,
				"description": e.Description,
				"amount":      e.Amount,
			},
		})
	}
	return entities, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose when the model
// ignores the formatting instructions.
func cleanModelJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
