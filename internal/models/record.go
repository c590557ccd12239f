// Package models defines core data structures for outfit records, match queries, and match results.
package models

import (
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	// ErrRecordNotFound is returned when a record id is not present in the catalog.
	ErrRecordNotFound = errors.New("record not found")
	// ErrMalformedRecord is returned when stored JSON does not have the outfit record shape.
	ErrMalformedRecord = errors.New("malformed record")
)

// Slot is a garment position within an outfit.
type Slot string

const (
	SlotTop         Slot = "top"
	SlotBottom      Slot = "bottom"
	SlotShoes       Slot = "shoes"
	SlotAccessories Slot = "accessories"
)

// Slots lists every garment slot in canonical order.
var Slots = []Slot{SlotTop, SlotBottom, SlotShoes, SlotAccessories}

// ParseSlot maps a slot name (or a common alias) to a Slot.
func ParseSlot(s string) (Slot, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "tops", "upper", "outer", "outerwear":
		return SlotTop, true
	case "bottom", "bottoms", "lower", "pants":
		return SlotBottom, true
	case "shoes", "shoe", "footwear":
		return SlotShoes, true
	case "accessories", "accessory", "acc":
		return SlotAccessories, true
	default:
		return "", false
	}
}

// Styling dimensions treated as major when scoring styling relevance.
const (
	StylingWearingMethod     = "wearing_method"
	StylingTuckDegree        = "tuck_degree"
	StylingFitDetails        = "fit_details"
	StylingSilhouetteBalance = "silhouette_balance"
	StylingPoints            = "styling_points"
)

// DefaultSituation is the situation a record conceptually belongs to when it has no tags.
const DefaultSituation = "daily"

// GarmentAttributes describes one detected garment.
type GarmentAttributes struct {
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Fit      string `json:"fit,omitempty"`
	Material string `json:"material,omitempty"`
}

// IsZero reports whether no attribute is set.
func (g GarmentAttributes) IsZero() bool {
	return g.Name == "" && g.Color == "" && g.Fit == "" && g.Material == ""
}

// OutfitRecord is one analyzed outfit image.
type OutfitRecord struct {
	ID            string                     `json:"id"`
	Garments      map[Slot]GarmentAttributes `json:"garments"`
	StylingMethod map[string]string          `json:"styling_method,omitempty"`
	SituationTags []string                   `json:"situation_tags"`
	SourceURL     string                     `json:"source_url,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// Garment returns the garment in slot, if detected.
func (r *OutfitRecord) Garment(slot Slot) (GarmentAttributes, bool) {
	if r == nil || r.Garments == nil {
		return GarmentAttributes{}, false
	}
	g, ok := r.Garments[slot]
	if !ok || g.IsZero() {
		return GarmentAttributes{}, false
	}
	return g, true
}

// PopulatedSlots returns how many slots have a detected garment.
func (r *OutfitRecord) PopulatedSlots() int {
	n := 0
	for _, s := range Slots {
		if _, ok := r.Garment(s); ok {
			n++
		}
	}
	return n
}

// StylingEntries returns the number of non-empty styling method values.
func (r *OutfitRecord) StylingEntries() int {
	n := 0
	for _, v := range r.StylingMethod {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// StylingDimensions returns the styling dimension names with a value, sorted.
func (r *OutfitRecord) StylingDimensions() []string {
	dims := make([]string, 0, len(r.StylingMethod))
	for k, v := range r.StylingMethod {
		if strings.TrimSpace(v) != "" {
			dims = append(dims, k)
		}
	}
	sort.Strings(dims)
	return dims
}

// HasTag reports whether the record carries the given situation tag.
func (r *OutfitRecord) HasTag(tag string) bool {
	for _, t := range r.SituationTags {
		if t == tag {
			return true
		}
	}
	return false
}

// EffectiveTags returns the situation tags, or DefaultSituation when there are none.
func (r *OutfitRecord) EffectiveTags() []string {
	if len(r.SituationTags) == 0 {
		return []string{DefaultSituation}
	}
	return r.SituationTags
}

// DistinctColors returns the number of distinct non-empty garment colors.
func (r *OutfitRecord) DistinctColors() int {
	return r.distinct(func(g GarmentAttributes) string { return g.Color })
}

// DistinctFits returns the number of distinct non-empty garment fits.
func (r *OutfitRecord) DistinctFits() int {
	return r.distinct(func(g GarmentAttributes) string { return g.Fit })
}

func (r *OutfitRecord) distinct(field func(GarmentAttributes) string) int {
	seen := make(map[string]struct{})
	for _, s := range Slots {
		g, ok := r.Garment(s)
		if !ok {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(field(g)))
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Validate checks the invariants every stored record must satisfy.
func (r *OutfitRecord) Validate() error {
	if r == nil {
		return ErrMalformedRecord
	}
	if strings.TrimSpace(r.ID) == "" {
		return errors.Join(ErrMalformedRecord, errors.New("missing id"))
	}
	for slot := range r.Garments {
		if _, ok := ParseSlot(string(slot)); !ok {
			return errors.Join(ErrMalformedRecord, errors.New("unknown slot "+string(slot)))
		}
	}
	return nil
}
