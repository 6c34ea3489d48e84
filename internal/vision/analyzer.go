// Package vision turns receipt images into structured expense data using an
// external vision-language model. The rest of the system treats this as an
// untrusted collaborator: everything coming back is normalized and leniently
// coerced before it is stored.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/genai"

	"github.com/aferrand/housetab/internal/models"
)

var (
	ErrEmptyResponse = errors.New("model returned an empty response")
	ErrBadModelJSON  = errors.New("could not parse JSON from model response")
)

// Analysis is the structured result of reading one receipt image.
type Analysis struct {
	Vendor      string
	ReceiptDate string
	Currency    string
	Category    string
	Subtotal    any
	Tax         any
	Tip         any
	Total       any
	Items       []models.LooseItem
	RawText     string
}

// BulkHint tags one image of a multi-image upload so the model treats each
// receipt independently. Zero value means a single upload.
type BulkHint struct {
	Index int
	Total int
}

// Analyzer reads a receipt image and returns the extracted analysis.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string, hint BulkHint) (*Analysis, error)
}

// GenAIAnalyzer implements Analyzer against the Gemini API.
type GenAIAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGenAIAnalyzer creates an analyzer using the given model name. API
// credentials come from the environment per the genai client defaults.
func NewGenAIAnalyzer(ctx context.Context, model string) (*GenAIAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GenAIAnalyzer{client: client, model: model}, nil
}

const basePrompt = "You are a receipt parser. Extract line items and totals from this receipt image. " +
	"Return only valid JSON with this exact schema: " +
	`{"vendor": string, "receipt_date": string, "currency": string, ` +
	`"category": "supermarket"|"bills"|"taxes"|"entertainment"|"other", ` +
	`"subtotal": number|null, "tax": number|null, "tip": number|null, "total": number|null, ` +
	`"items": [{"name": string, "quantity": number|null, "unit_price": number|null, "total_price": number|null}], ` +
	`"raw_text": string}. ` +
	"Use null when values are missing. Keep currency as ISO code when possible. " +
	"Pick category carefully based on vendor and items. " +
	"Do NOT wrap the response in code fences."

func buildPrompt(hint BulkHint) string {
	prompt := basePrompt
	if hint.Total > 1 {
		prompt += " This image is receipt " + strconv.Itoa(hint.Index) +
			" of " + strconv.Itoa(hint.Total) + " from a bulk upload. " +
			"Treat each image independently and do not merge values from other receipts."
	}
	return prompt
}

// Analyze sends one receipt image to the model and decodes its answer.
func (a *GenAIAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string, hint BulkHint) (*Analysis, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(hint)},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	analysis, err := decodeAnalysis(raw)
	if err != nil {
		return nil, err
	}
	return analysis, nil
}
