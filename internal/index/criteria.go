package index

import "github.com/hyperjump/outfitter/internal/keyword"

// Criteria selects records through the index. Keywords are ORed within a field and
// non-empty fields are ANDed.
type Criteria struct {
	Situations []string `json:"situations,omitempty"`
	Garments   []string `json:"garments,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	Styling    []string `json:"styling,omitempty"`
}

// IsEmpty reports whether no field has keywords.
func (c Criteria) IsEmpty() bool {
	return len(c.Situations) == 0 && len(c.Garments) == 0 && len(c.Colors) == 0 && len(c.Styling) == 0
}

type criteriaGroup struct {
	kind     Kind
	keywords []string
}

func (c Criteria) groups() []criteriaGroup {
	var out []criteriaGroup
	for _, g := range []criteriaGroup{
		{KindSituation, c.Situations},
		{KindGarment, c.Garments},
		{KindColor, c.Colors},
		{KindStyling, c.Styling},
	} {
		if len(g.keywords) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// DeriveCriteria builds criteria from request text: the situation categories its
// trigger words imply, and the garment and color terms it mentions.
func DeriveCriteria(extractor keyword.Extractor, text string) Criteria {
	return Criteria{
		Situations: extractor.Situations(text),
		Garments:   extractor.Garments(text),
		Colors:     extractor.Colors(text),
	}
}
