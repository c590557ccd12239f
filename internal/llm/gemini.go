package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hyperjump/outfitter/internal/models"
)

// Gemini defaults.
const (
	DefaultVisionModel = "gemini-2.5-flash"
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultTimeout     = 30 * time.Second
)

// GeminiOptions configures the Gemini client.
type GeminiOptions struct {
	APIKey      string
	VisionModel string
	TextModel   string
	Timeout     time.Duration
}

// Gemini implements VisionAnalyzer and TextGenerator with the Gemini API.
type Gemini struct {
	client *genai.Client
	opts   GeminiOptions
	logger *zap.Logger
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, opts GeminiOptions, logger *zap.Logger) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if opts.VisionModel == "" {
		opts.VisionModel = DefaultVisionModel
	}
	if opts.TextModel == "" {
		opts.TextModel = DefaultTextModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, opts: opts, logger: logger}, nil
}

const visionInstruction = `You analyze photos of a single outfit. Identify the garment in each slot (top, bottom, shoes, accessories) with its name, color, fit and material. Describe how the outfit is worn along the dimensions wearing_method, tuck_degree, fit_details, silhouette_balance and styling_points. List the occasions the outfit suits as short lowercase situation tags such as date, business, daily, travel, wedding, school, party or sports. Leave a field empty when it cannot be seen. Respond with JSON only.`

// Analyze sends the image with an optional hint and returns the model's JSON.
func (g *Gemini) Analyze(ctx context.Context, image []byte, mimeType, hint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	prompt := "Analyze this outfit."
	if hint = strings.TrimSpace(hint); hint != "" {
		prompt += " Context from the uploader: " + hint
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
		{Text: prompt},
	}
	result, err := g.client.Models.GenerateContent(ctx, g.opts.VisionModel, []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
		CandidateCount:   1,
		Temperature:      float32Ptr(0.2),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: visionInstruction}},
		},
	})
	text, err := g.text(result, err, g.opts.VisionModel)
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}
	return []byte(text), nil
}

// Generate runs a text completion.
func (g *Gemini) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	result, err := g.client.Models.GenerateContent(ctx, g.opts.TextModel, genai.Text(user), &genai.GenerateContentConfig{
		CandidateCount: 1,
		Temperature:    float32Ptr(0.8),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	})
	text, err := g.text(result, err, g.opts.TextModel)
	if err != nil {
		return "", fmt.Errorf("text generation failed: %w", err)
	}
	return text, nil
}

func (g *Gemini) text(result *genai.GenerateContentResponse, err error, model string) (string, error) {
	if err != nil {
		return "", err
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, result.PromptFeedback.BlockReasonMessage)
	}
	if result.UsageMetadata != nil {
		g.logger.Debug("model call",
			zap.String("model", model),
			zap.Int32("input_tokens", result.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", result.UsageMetadata.CandidatesTokenCount))
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func analysisSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	garment := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":     str,
			"color":    str,
			"fit":      str,
			"material": str,
		},
		Required: []string{"name"},
	}
	garments := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
	for _, slot := range models.Slots {
		garments.Properties[string(slot)] = garment
	}
	styling := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
	for _, dim := range []string{
		models.StylingWearingMethod,
		models.StylingTuckDegree,
		models.StylingFitDetails,
		models.StylingSilhouetteBalance,
		models.StylingPoints,
	} {
		styling.Properties[dim] = str
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"garments":       garments,
			"styling_method": styling,
			"situation_tags": {Type: genai.TypeArray, Items: str},
		},
		Required: []string{"garments", "situation_tags"},
	}
}

func float32Ptr(f float32) *float32 {
	return &f
}
