package keyword

import (
	"sort"
	"strings"
)

// SituationTrigger maps a situation category to the words that imply it.
type SituationTrigger struct {
	Category string   `yaml:"category" json:"category"`
	Words    []string `yaml:"words" json:"words"`
}

// Vocabulary is the fixed fashion vocabulary. It implements Extractor.
type Vocabulary struct {
	garments []string
	colors   []string
	styling  []string
	triggers []SituationTrigger
	synonyms map[string][]string
}

// VocabularyOption customizes a Vocabulary.
type VocabularyOption func(*Vocabulary)

// WithGarments adds garment terms.
func WithGarments(terms ...string) VocabularyOption {
	return func(v *Vocabulary) { v.garments = appendNormalized(v.garments, terms) }
}

// WithColors adds color terms.
func WithColors(terms ...string) VocabularyOption {
	return func(v *Vocabulary) { v.colors = appendNormalized(v.colors, terms) }
}

// WithStyling adds styling terms.
func WithStyling(terms ...string) VocabularyOption {
	return func(v *Vocabulary) { v.styling = appendNormalized(v.styling, terms) }
}

// WithTrigger adds trigger words to a situation category, creating it if needed.
func WithTrigger(category string, words ...string) VocabularyOption {
	return func(v *Vocabulary) {
		category = Normalize(category)
		for i := range v.triggers {
			if v.triggers[i].Category == category {
				v.triggers[i].Words = appendNormalized(v.triggers[i].Words, words)
				return
			}
		}
		v.triggers = append(v.triggers, SituationTrigger{Category: category, Words: appendNormalized(nil, words)})
	}
}

// WithSynonyms adds expansions for a word or phrase.
func WithSynonyms(phrase string, expansions ...string) VocabularyOption {
	return func(v *Vocabulary) {
		phrase = Normalize(phrase)
		v.synonyms[phrase] = appendNormalized(v.synonyms[phrase], expansions)
	}
}

// NewVocabulary returns the default fashion vocabulary with opts applied.
func NewVocabulary(opts ...VocabularyOption) *Vocabulary {
	v := &Vocabulary{
		garments: appendNormalized(nil, defaultGarments),
		colors:   appendNormalized(nil, defaultColors),
		styling:  appendNormalized(nil, defaultStyling),
		synonyms: make(map[string][]string, len(defaultSynonyms)),
	}
	for _, t := range defaultTriggers {
		v.triggers = append(v.triggers, SituationTrigger{Category: t.Category, Words: appendNormalized(nil, t.Words)})
	}
	for k, exp := range defaultSynonyms {
		v.synonyms[Normalize(k)] = appendNormalized(nil, exp)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Garments implements Extractor.
func (v *Vocabulary) Garments(text string) []string { return contained(Normalize(text), v.garments) }

// Colors implements Extractor.
func (v *Vocabulary) Colors(text string) []string { return contained(Normalize(text), v.colors) }

// Styling implements Extractor.
func (v *Vocabulary) Styling(text string) []string { return contained(Normalize(text), v.styling) }

// Situations implements Extractor. Categories are returned in table order.
func (v *Vocabulary) Situations(text string) []string {
	words := v.Expand(text)
	joined := " " + strings.Join(words, " | ") + " "
	var out []string
	for _, t := range v.triggers {
		if ContainsWord(joined, t.Category) {
			out = append(out, t.Category)
			continue
		}
		for _, w := range t.Words {
			if ContainsWord(joined, w) {
				out = append(out, t.Category)
				break
			}
		}
	}
	return out
}

// Triggers implements Extractor.
func (v *Vocabulary) Triggers(category string) []string {
	category = Normalize(category)
	for _, t := range v.triggers {
		if t.Category == category {
			return append([]string(nil), t.Words...)
		}
	}
	return nil
}

// Categories returns every situation category in table order.
func (v *Vocabulary) Categories() []string {
	out := make([]string, len(v.triggers))
	for i, t := range v.triggers {
		out[i] = t.Category
	}
	return out
}

// Expand implements Extractor. The normalized text comes first, followed by the
// expansions of every synonym phrase found in it, sorted and without duplicates.
func (v *Vocabulary) Expand(text string) []string {
	norm := Normalize(text)
	if norm == "" {
		return nil
	}
	out := []string{norm}
	seen := map[string]struct{}{norm: {}}
	var extra []string
	for phrase, exps := range v.synonyms {
		if !ContainsWord(norm, phrase) {
			continue
		}
		for _, e := range exps {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			extra = append(extra, e)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// contained returns the terms that occur as substrings of text, in vocabulary order.
func contained(text string, terms []string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, t := range terms {
		if strings.Contains(text, t) {
			out = append(out, t)
		}
	}
	return out
}

func appendNormalized(dst, terms []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(terms))
	for _, t := range dst {
		seen[t] = struct{}{}
	}
	for _, t := range terms {
		t = Normalize(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		dst = append(dst, t)
	}
	return dst
}

var defaultGarments = []string{
	"t-shirt", "shirt", "tee", "blouse", "polo", "knit", "sweater", "turtleneck",
	"cardigan", "hoodie", "sweatshirt", "vest", "jacket", "blazer", "coat",
	"trench", "parka", "padding", "puffer", "suit", "jeans", "denim", "slacks",
	"trousers", "pants", "chinos", "cargo", "jogger", "shorts", "skirt", "dress",
	"sneakers", "loafers", "boots", "derby", "sandals", "slippers", "heels",
	"bag", "cap", "hat", "beanie", "belt", "watch", "necklace", "scarf", "glasses",
}

var defaultColors = []string{
	"black", "white", "gray", "grey", "charcoal", "navy", "blue", "sky blue",
	"beige", "cream", "ivory", "camel", "brown", "khaki", "olive", "green", "mint",
	"red", "burgundy", "pink", "yellow", "orange", "purple", "denim",
}

var defaultStyling = []string{
	"half tuck", "full tuck", "tuck", "untucked", "layered", "layering", "rolled",
	"cuffed", "oversized", "slim", "relaxed", "cropped", "tone on tone", "contrast",
	"minimal", "casual", "formal", "street", "classic", "vintage", "sporty", "neat",
}

var defaultTriggers = []SituationTrigger{
	{Category: "date", Words: []string{"date", "blind date", "introduction meeting", "first meeting", "anniversary", "dinner"}},
	{Category: "business", Words: []string{"business", "work", "office", "meeting", "interview", "company", "presentation"}},
	{Category: "daily", Words: []string{"daily", "everyday", "casual", "weekend", "errand"}},
	{Category: "travel", Words: []string{"travel", "trip", "vacation", "holiday", "airport"}},
	{Category: "wedding", Words: []string{"wedding", "ceremony", "reception"}},
	{Category: "school", Words: []string{"school", "campus", "class", "lecture"}},
	{Category: "party", Words: []string{"party", "club", "festival", "concert"}},
	{Category: "sports", Words: []string{"exercise", "gym", "running", "hiking"}},
}

var defaultSynonyms = map[string][]string{
	"introduction meeting": {"date", "blind date"},
	"blind date":           {"date", "introduction meeting"},
	"first date":           {"date"},
	"job interview":        {"interview", "business"},
	"commute":              {"work", "office"},
	"wedding guest":        {"wedding"},
	"vacation":             {"travel"},
	"beach":                {"travel", "vacation"},
	"campus":               {"school"},
	"workout":              {"exercise"},
}
