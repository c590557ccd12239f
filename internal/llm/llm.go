// Package llm provides the vision analysis and text generation functions behind
// record ingestion and response composition.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrBlocked is returned when the model refuses the prompt.
	ErrBlocked = errors.New("prompt blocked")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("empty model response")
)

// VisionAnalyzer analyzes an outfit image and returns analysis JSON with garments,
// styling_method and situation_tags fields.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType, hint string) ([]byte, error)
}

// TextGenerator produces text from a system prompt and a user prompt.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
