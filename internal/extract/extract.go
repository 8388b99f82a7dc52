// Package extract is the AI extraction collaborator: given a bill PDF,
// it returns a structured bill record. The engine consumes it only
// through the Extractor interface; the production implementation sends
// the PDF to Gemini with a strict-JSON prompt.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/bill-ledger/internal/bill"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// extractionPrompt asks for exactly the wire shape bill.Record decodes.
const extractionPrompt = `You are a receipt parser for supermarket bill PDFs.

Extract the following from the attached bill:
1. The store name without any corporate form, e.g. "REWE" or "Edeka", not "REWE Markt GmbH".
2. The purchase date without time of day.
3. Every line item with its price, item names with correct capitalization.
4. The total amount.

Rules:
- Add any bottle deposit directly onto the price of the drink it belongs to.
- Append weights to the names of produce items, e.g. "Tomaten 0.5kg".
- Output STRICT JSON only: no comments, no trailing commas, no extra text.
- Do NOT wrap the response in code fences.

Output a single JSON object with these fields:
- "store": string
- "date": string, ISO format "YYYY-MM-DD"
- "category": string or ""
- "items": array of {"name": string, "price": number or "=..." formula string}
- "total": number`

// Extractor turns a bill document into a structured record.
type Extractor interface {
	ExtractBill(ctx context.Context, pdfPath string) (*bill.Record, error)
}

// GeminiExtractor implements Extractor against the Gemini API. Client
// credentials come from the environment (GEMINI_API_KEY, or the Vertex
// AI variables), the same way the genai SDK documents them.
type GeminiExtractor struct {
	model string
}

// NewGeminiExtractor creates an extractor for the given model name;
// an empty name selects DefaultModel.
func NewGeminiExtractor(model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiExtractor{model: model}
}

// ExtractBill implements Extractor.
func (e *GeminiExtractor) ExtractBill(ctx context.Context, pdfPath string) (*bill.Record, error) {
	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("extract: read PDF %q: %w", pdfPath, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("extract: empty response from model")
	}

	rec, err := DecodeBill(rawText)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w\nraw response: %s", pdfPath, err, rawText)
	}
	return rec, nil
}

// DecodeBill parses a model response into a bill record, tolerating
// Markdown fences and surrounding prose the model was told not to emit.
func DecodeBill(raw string) (*bill.Record, error) {
	clean := cleanModelJSON(raw)

	var rec bill.Record
	if err := json.Unmarshal([]byte(clean), &rec); err != nil {
		return nil, fmt.Errorf("decode bill JSON: %w", err)
	}
	if rec.Store == "" {
		return nil, fmt.Errorf("decode bill: missing store")
	}
	if len(rec.Items) == 0 {
		return nil, fmt.Errorf("decode bill: no items")
	}
	return &rec, nil
}

// cleanModelJSON strips ```json fences and clamps the text to the outer
// JSON object when the model ignored the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
