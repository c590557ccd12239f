// Package keyword extracts fixed-vocabulary fashion keywords from short phrases and
// free-text requests.
//
// Matching is substring containment against a known vocabulary, not tokenization:
// garment names and styling notes are short phrases like "cropped denim jacket".
package keyword

// Extractor pulls normalized keywords out of text. Implementations must be safe for
// concurrent use.
type Extractor interface {
	// Garments returns garment vocabulary terms contained in text.
	Garments(text string) []string
	// Colors returns color vocabulary terms contained in text.
	Colors(text string) []string
	// Styling returns styling vocabulary terms contained in text.
	Styling(text string) []string
	// Situations returns the situation categories whose trigger words occur in text.
	Situations(text string) []string
	// Triggers returns the trigger words of a situation category.
	Triggers(category string) []string
	// Expand returns text's normalized words plus synonym expansions.
	Expand(text string) []string
}
