package ranking

import (
	"strings"

	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/models"
)

// QueryAnalyzer derives an AnalyzedQuery from a match request.
type QueryAnalyzer struct {
	extractor      keyword.Extractor
	formalKeywords []string
}

// NewQueryAnalyzer creates a QueryAnalyzer. formalKeywords are the words that make a
// request a formal occasion.
func NewQueryAnalyzer(extractor keyword.Extractor, formalKeywords []string) *QueryAnalyzer {
	return &QueryAnalyzer{extractor: extractor, formalKeywords: normalizeTerms(formalKeywords)}
}

// Analyze normalizes the request text, expands synonyms, and classifies the occasion.
func (qa *QueryAnalyzer) Analyze(q models.MatchQuery) *AnalyzedQuery {
	role := q.Role
	if role == "" {
		role = models.RoleStyleAnalyst
	}
	expanded := qa.extractor.Expand(q.Text)
	result := &AnalyzedQuery{
		Original:   q.Text,
		Text:       keyword.Normalize(q.Text),
		Expanded:   strings.Join(expanded, " | "),
		Situations: qa.extractor.Situations(q.Text),
		Role:       role,
	}
	for _, kw := range qa.formalKeywords {
		if keyword.ContainsWord(result.Expanded, kw) {
			result.Formal = true
			break
		}
	}
	return result
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := keyword.Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// containsAny reports whether text contains any of terms as a substring.
func containsAny(text string, terms []string) bool {
	if text == "" {
		return false
	}
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
