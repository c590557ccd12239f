package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/outfitter/internal/keyword"
)

// Analysis is the garment/styling/situation part of a record, as produced by image analysis.
type Analysis struct {
	Garments      map[Slot]GarmentAttributes
	StylingMethod map[string]string
	SituationTags []string
}

// rawRecord accepts the loose shapes found in stored records and analysis output:
// garments may be an object, a bare string, or a list; tags may be a list or a
// comma separated string. Everything is normalized before leaving this file.
type rawRecord struct {
	ID             string                     `json:"id"`
	Garments       map[string]json.RawMessage `json:"garments"`
	Items          map[string]json.RawMessage `json:"items"`
	ExtractedItems map[string]json.RawMessage `json:"extracted_items"`
	StylingMethod  map[string]json.RawMessage `json:"styling_method"`
	Styling        map[string]json.RawMessage `json:"styling"`
	SituationTags  json.RawMessage            `json:"situation_tags"`
	Situations     json.RawMessage            `json:"situations"`
	SourceURL      string                     `json:"source_url"`
	CreatedAt      *time.Time                 `json:"created_at"`
	UpdatedAt      *time.Time                 `json:"updated_at"`
}

type rawGarment struct {
	Name     json.RawMessage `json:"name"`
	Item     json.RawMessage `json:"item"`
	Color    json.RawMessage `json:"color"`
	Fit      json.RawMessage `json:"fit"`
	Material json.RawMessage `json:"material"`
}

// ParseRecord decodes a stored record, normalizing loose shapes into an OutfitRecord.
func ParseRecord(data []byte) (*OutfitRecord, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	a, err := raw.analysis()
	if err != nil {
		return nil, err
	}
	rec := &OutfitRecord{
		ID:            strings.TrimSpace(raw.ID),
		Garments:      a.Garments,
		StylingMethod: a.StylingMethod,
		SituationTags: a.SituationTags,
		SourceURL:     raw.SourceURL,
	}
	if raw.CreatedAt != nil {
		rec.CreatedAt = *raw.CreatedAt
	}
	if raw.UpdatedAt != nil {
		rec.UpdatedAt = *raw.UpdatedAt
	} else {
		rec.UpdatedAt = rec.CreatedAt
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// ParseAnalysis decodes image analysis output into an Analysis.
func ParseAnalysis(data []byte) (*Analysis, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return raw.analysis()
}

// NewRecord builds a record from an analysis. CreatedAt and UpdatedAt are set to now.
func NewRecord(id, sourceURL string, a *Analysis, now time.Time) *OutfitRecord {
	now = now.UTC()
	rec := &OutfitRecord{
		ID:            id,
		Garments:      map[Slot]GarmentAttributes{},
		StylingMethod: map[string]string{},
		SituationTags: []string{},
		SourceURL:     sourceURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if a != nil {
		if a.Garments != nil {
			rec.Garments = a.Garments
		}
		if a.StylingMethod != nil {
			rec.StylingMethod = a.StylingMethod
		}
		if a.SituationTags != nil {
			rec.SituationTags = a.SituationTags
		}
	}
	return rec
}

func (raw *rawRecord) analysis() (*Analysis, error) {
	garmentSrc := raw.Garments
	if garmentSrc == nil {
		garmentSrc = raw.Items
	}
	if garmentSrc == nil {
		garmentSrc = raw.ExtractedItems
	}
	garments := make(map[Slot]GarmentAttributes, len(garmentSrc))
	for key, msg := range garmentSrc {
		slot, ok := ParseSlot(key)
		if !ok {
			continue
		}
		g, err := parseGarment(msg)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %s: %v", ErrMalformedRecord, key, err)
		}
		if !g.IsZero() {
			garments[slot] = g
		}
	}

	stylingSrc := raw.StylingMethod
	if stylingSrc == nil {
		stylingSrc = raw.Styling
	}
	styling := make(map[string]string, len(stylingSrc))
	for key, msg := range stylingSrc {
		v, err := stringish(msg)
		if err != nil {
			return nil, fmt.Errorf("%w: styling %s: %v", ErrMalformedRecord, key, err)
		}
		dim := normalizeDimension(key)
		if dim != "" && v != "" {
			styling[dim] = v
		}
	}

	tagSrc := raw.SituationTags
	if len(tagSrc) == 0 {
		tagSrc = raw.Situations
	}
	tags, err := parseTags(tagSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: situation_tags: %v", ErrMalformedRecord, err)
	}

	return &Analysis{Garments: garments, StylingMethod: styling, SituationTags: tags}, nil
}

// parseGarment accepts an object, a bare name string, or a list whose first usable entry wins.
func parseGarment(msg json.RawMessage) (GarmentAttributes, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return GarmentAttributes{}, nil
	}
	switch msg[0] {
	case '"':
		var name string
		if err := json.Unmarshal(msg, &name); err != nil {
			return GarmentAttributes{}, err
		}
		return GarmentAttributes{Name: strings.TrimSpace(name)}, nil
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(msg, &list); err != nil {
			return GarmentAttributes{}, err
		}
		for _, item := range list {
			g, err := parseGarment(item)
			if err != nil {
				return GarmentAttributes{}, err
			}
			if !g.IsZero() {
				return g, nil
			}
		}
		return GarmentAttributes{}, nil
	case '{':
		var rg rawGarment
		if err := json.Unmarshal(msg, &rg); err != nil {
			return GarmentAttributes{}, err
		}
		name, err := stringish(rg.Name)
		if err != nil {
			return GarmentAttributes{}, err
		}
		if name == "" {
			if name, err = stringish(rg.Item); err != nil {
				return GarmentAttributes{}, err
			}
		}
		color, err := stringish(rg.Color)
		if err != nil {
			return GarmentAttributes{}, err
		}
		fit, err := stringish(rg.Fit)
		if err != nil {
			return GarmentAttributes{}, err
		}
		material, err := stringish(rg.Material)
		if err != nil {
			return GarmentAttributes{}, err
		}
		return GarmentAttributes{Name: name, Color: color, Fit: fit, Material: material}, nil
	default:
		return GarmentAttributes{}, errors.New("unsupported garment shape")
	}
}

// stringish decodes a string, number, bool, or list of those into a single string.
func stringish(msg json.RawMessage) (string, error) {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return "", nil
	}
	var v interface{}
	if err := json.Unmarshal(msg, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", "), nil
	default:
		return "", fmt.Errorf("unsupported value %T", v)
	}
}

func parseTags(msg json.RawMessage) ([]string, error) {
	msg = bytes.TrimSpace(msg)
	tags := []string{}
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return tags, nil
	}
	var values []string
	switch msg[0] {
	case '"':
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, err
		}
		values = strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' || r == '|' })
	case '[':
		if err := json.Unmarshal(msg, &values); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported tags shape")
	}
	return NormalizeTags(values), nil
}

// NormalizeTags normalizes situation tags and removes empties and duplicates, keeping order.
func NormalizeTags(values []string) []string {
	tags := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		t := keyword.Normalize(v)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

func normalizeDimension(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	return key
}
