// Package claude extracts structured metric values from raw search
// evidence using the Anthropic API. All response parsing is lenient: a
// malformed or absent field degrades to a not-found value, never an error.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Evidence is one search hit handed to the extractor.
type Evidence struct {
	Title   string
	URL     string
	Snippet string
}

// ExtractionRequest asks for one metric value from a set of evidence.
type ExtractionRequest struct {
	Entity      string
	MetricName  string
	Description string
	Unit        string
	Year        int
	Evidence    []Evidence
}

// Extraction is the structured result of a metric extraction. A nil Value
// means the metric could not be found in the evidence.
type Extraction struct {
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit"`
	Year       int      `json:"year"`
	SourceURL  string   `json:"source_url"`
	Confidence float64  `json:"confidence"`
}

// JustificationRequest asks for a short prose summary of a dimension's
// findings.
type JustificationRequest struct {
	Entity    string
	Dimension string
	Findings  []string
}

// Extractor turns raw evidence into structured metric values.
type Extractor interface {
	ExtractMetric(ctx context.Context, req ExtractionRequest) (*Extraction, error)
	Justify(ctx context.Context, req JustificationRequest) (string, error)
}

// Option configures the extractor.
type Option func(*sdkExtractor)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(e *sdkExtractor) { e.model = model }
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int64) Option {
	return func(e *sdkExtractor) { e.maxTokens = n }
}

type sdkExtractor struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewExtractor creates an Extractor backed by the official SDK.
func NewExtractor(apiKey string, opts ...Option) Extractor {
	e := &sdkExtractor{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     "claude-haiku-4-5-20251001",
		maxTokens: 1024,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

const extractSystemPrompt = `You extract numeric statistics from search results.
Respond with a single JSON object and nothing else:
{"value": <number or null>, "unit": "<string>", "year": <number or 0>, "source_url": "<url or empty>", "confidence": <0.0-1.0>}
Use null for value when the evidence does not contain the requested statistic.
Confidence reflects how directly the cited evidence states the value.`

func (e *sdkExtractor) ExtractMetric(ctx context.Context, req ExtractionRequest) (*Extraction, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Entity: %s\nMetric: %s (%s)\nUnit: %s\nTarget year: %d\n\nEvidence:\n",
		req.Entity, req.MetricName, req.Description, req.Unit, req.Year)
	for i, ev := range req.Evidence {
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n   %s\n", i+1, ev.Title, ev.URL, ev.Snippet)
	}

	text, err := e.complete(ctx, extractSystemPrompt, b.String())
	if err != nil {
		return nil, eris.Wrap(err, "claude: extract metric")
	}

	return parseExtraction(text), nil
}

const justifySystemPrompt = `You write a two or three sentence assessment summary
for one dimension of a country report. Plain prose, no markdown, no preamble.`

func (e *sdkExtractor) Justify(ctx context.Context, req JustificationRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Entity: %s\nDimension: %s\nFindings:\n", req.Entity, req.Dimension)
	for _, f := range req.Findings {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	text, err := e.complete(ctx, justifySystemPrompt, b.String())
	if err != nil {
		return "", eris.Wrap(err, "claude: justify")
	}
	return strings.TrimSpace(text), nil
}

func (e *sdkExtractor) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := e.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: e.maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "create message")
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

// parseExtraction pulls the JSON object out of a model response. Any
// shape problem maps to a not-found extraction with zero confidence.
func parseExtraction(text string) *Extraction {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return &Extraction{}
	}

	var raw struct {
		Value      json.Number `json:"value"`
		Unit       string      `json:"unit"`
		Year       json.Number `json:"year"`
		SourceURL  string      `json:"source_url"`
		Confidence json.Number `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return &Extraction{}
	}

	ex := &Extraction{
		Unit:      raw.Unit,
		SourceURL: raw.SourceURL,
	}
	if v, err := raw.Value.Float64(); err == nil && raw.Value != "" {
		ex.Value = &v
	}
	if y, err := raw.Year.Int64(); err == nil {
		ex.Year = int(y)
	}
	if c, err := raw.Confidence.Float64(); err == nil && c >= 0 && c <= 1 {
		ex.Confidence = c
	}
	// A value with no confidence reported is not trustworthy evidence.
	if ex.Value == nil {
		ex.Confidence = 0
	}
	return ex
}
