package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiExtractor extracts invoice fields using the Gemini API.
type GeminiExtractor struct {
	apiKey      string
	model       string
	httpClient  *http.Client
	baseURL     string
	RetryConfig RetryConfig
}

// NewGeminiExtractor creates a Gemini-backed extractor.
func NewGeminiExtractor(apiKey, model string) *GeminiExtractor {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiExtractor{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL:     defaultGeminiBaseURL,
		RetryConfig: DefaultRetryConfig,
	}
}

// Available returns true if an API key is configured.
func (g *GeminiExtractor) Available() bool { return g.apiKey != "" }

const invoicePrompt = `Extract the following fields from this invoice or receipt.
Return ONLY a valid JSON object with this structure:
{
  "vendor": {"value": "vendor name", "confidence": 0.0},
  "date": {"value": "YYYY-MM-DD", "confidence": 0.0},
  "amount": {"value": "0.00", "confidence": 0.0},
  "tax_amount": {"value": "0.00", "confidence": 0.0},
  "currency": {"value": "AED", "confidence": 0.0},
  "vat_inclusive": {"value": "true|false", "confidence": 0.0},
  "category": {"value": "", "confidence": 0.0},
  "transaction_type": {"value": "invoice|receipt", "confidence": 0.0},
  "notes": {"value": "", "confidence": 0.0}
}
Rules:
- Every value is a string; confidence is 0.0 to 1.0 for that single field
- Leave value empty ("") with confidence 0.0 when a field is not on the document
- amount is the total the customer pays as printed; do NOT add or remove VAT yourself
- vat_inclusive is "true" only if the document explicitly says the total includes VAT,
  "false" only if it explicitly shows VAT added on top; otherwise leave it empty
- tax_amount is the VAT figure printed on the document, if any
- Use ISO currency codes (AED, USD, EUR)
- notes is a one-line summary of what was purchased`

// Extract implements Extractor. PDFs with a usable text layer get their
// extracted text appended to the prompt so the model reads exact figures.
func (g *GeminiExtractor) Extract(ctx context.Context, documentData []byte, filename string) (*RawDocument, error) {
	if g.apiKey == "" {
		return nil, &Error{
			Code:    ErrExtractorUnavailable,
			Message: "Gemini API key not configured",
		}
	}
	if len(documentData) == 0 {
		return nil, &Error{
			Code:    ErrInvalidDocument,
			Message: "empty document",
		}
	}

	prompt := invoicePrompt
	mimeType := detectMimeType(documentData)
	if mimeType == "application/pdf" {
		if analysis := AnalyzePDF(documentData); !analysis.IsScanned && analysis.ExtractedText != "" {
			prompt = fmt.Sprintf("%s\n\nText layer extracted from the PDF (authoritative for numbers):\n%s",
				invoicePrompt, analysis.ExtractedText)
		}
	}

	return WithRetry(ctx, g.RetryConfig, func(ctx context.Context) (*RawDocument, error) {
		return g.extractOnce(ctx, documentData, mimeType, prompt)
	})
}

func (g *GeminiExtractor) extractOnce(ctx context.Context, documentData []byte, mimeType, prompt string) (*RawDocument, error) {
	encoded := base64.StdEncoding.EncodeToString(documentData)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
					{
						"inline_data": map[string]string{
							"mime_type": mimeType,
							"data":      encoded,
						},
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.1,
			"maxOutputTokens": 1024,
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &Error{
			Code:      ErrExtractorUnavailable,
			Message:   "Gemini API request failed",
			Retryable: true,
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, classifyHTTPError(resp.StatusCode, string(body))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, &Error{
			Code:      ErrEmptyResponse,
			Message:   "no response from Gemini",
			Retryable: true,
		}
	}

	text := geminiResp.Candidates[0].Content.Parts[0].Text

	var raw RawDocument
	if err := extractJSON(text, &raw); err != nil {
		return nil, &Error{
			Code:      ErrEmptyResponse,
			Message:   "could not parse Gemini result",
			Retryable: true,
			Cause:     err,
		}
	}

	return &raw, nil
}

// classifyHTTPError converts Gemini HTTP errors to extraction errors.
func classifyHTTPError(statusCode int, body string) *Error {
	if statusCode == http.StatusTooManyRequests {
		return &Error{
			Code:      ErrExtractorRateLimited,
			Message:   "Gemini API rate limited",
			Retryable: true,
		}
	}
	return &Error{
		Code:      ErrExtractorUnavailable,
		Message:   fmt.Sprintf("Gemini API error (HTTP %d): %s", statusCode, body),
		Retryable: statusCode >= 500,
	}
}

// extractJSON extracts the first balanced JSON object from a text response.
func extractJSON(text string, v interface{}) error {
	start := -1
	end := -1
	braceCount := 0

	for i, c := range text {
		if c == '{' {
			if start == -1 {
				start = i
			}
			braceCount++
		} else if c == '}' {
			braceCount--
			if braceCount == 0 && start != -1 {
				end = i + 1
				break
			}
		}
	}

	if start == -1 || end == -1 {
		return fmt.Errorf("no JSON object found in response")
	}

	return json.Unmarshal([]byte(text[start:end]), v)
}
