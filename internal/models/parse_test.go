package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseRecord_objectGarments(t *testing.T) {
	data := []byte(`{
		"id": "look_1",
		"garments": {
			"top": {"name": "Striped Shirt", "color": "navy", "fit": "regular"},
			"bottom": {"name": "slacks", "color": "beige"}
		},
		"styling_method": {"tuck_degree": "half tuck", "Fit Details": "rolled sleeves"},
		"situation_tags": ["Date", "daily", "date"],
		"source_url": "https://cdn.example.com/look_1.jpg",
		"created_at": "2025-03-01T10:00:00Z"
	}`)
	rec, err := ParseRecord(data)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if rec.ID != "look_1" {
		t.Errorf("ID = %q", rec.ID)
	}
	top, ok := rec.Garment(SlotTop)
	if !ok || top.Name != "Striped Shirt" || top.Color != "navy" || top.Fit != "regular" {
		t.Errorf("top = %+v ok=%v", top, ok)
	}
	if rec.PopulatedSlots() != 2 {
		t.Errorf("PopulatedSlots = %d, want 2", rec.PopulatedSlots())
	}
	if got := rec.StylingMethod["fit_details"]; got != "rolled sleeves" {
		t.Errorf("fit_details = %q", got)
	}
	if len(rec.SituationTags) != 2 || rec.SituationTags[0] != "date" || rec.SituationTags[1] != "daily" {
		t.Errorf("SituationTags = %v", rec.SituationTags)
	}
	if !rec.UpdatedAt.Equal(rec.CreatedAt) {
		t.Errorf("UpdatedAt should default to CreatedAt: %v vs %v", rec.UpdatedAt, rec.CreatedAt)
	}
}

func TestParseRecord_looseShapes(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantTop  GarmentAttributes
		wantTags []string
	}{
		{
			name:     "bare string garment",
			data:     `{"id":"a","garments":{"top":"hoodie"},"situation_tags":"daily, travel"}`,
			wantTop:  GarmentAttributes{Name: "hoodie"},
			wantTags: []string{"daily", "travel"},
		},
		{
			name:     "list garment takes first usable entry",
			data:     `{"id":"a","items":{"top":[null,{"item":"cardigan","color":["ivory","cream"]}]},"situation_tags":[]}`,
			wantTop:  GarmentAttributes{Name: "cardigan", Color: "ivory, cream"},
			wantTags: []string{},
		},
		{
			name:     "extracted items alias with slot alias",
			data:     `{"id":"a","extracted_items":{"tops":{"name":"knit"}},"situations":["Blind-Date"]}`,
			wantTop:  GarmentAttributes{Name: "knit"},
			wantTags: []string{"blind date"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseRecord: %v", err)
			}
			top, _ := rec.Garment(SlotTop)
			if top != tt.wantTop {
				t.Errorf("top = %+v, want %+v", top, tt.wantTop)
			}
			if len(rec.SituationTags) != len(tt.wantTags) {
				t.Fatalf("tags = %v, want %v", rec.SituationTags, tt.wantTags)
			}
			for i := range tt.wantTags {
				if rec.SituationTags[i] != tt.wantTags[i] {
					t.Errorf("tags[%d] = %q, want %q", i, rec.SituationTags[i], tt.wantTags[i])
				}
			}
		})
	}
}

func TestParseRecord_malformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"garments":{"top":{"name":"shirt"}}}`,
		`{"id":"a","garments":{"top":42}}`,
		`{"id":"a","situation_tags":{"x":1}}`,
	}
	for _, c := range cases {
		if _, err := ParseRecord([]byte(c)); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("ParseRecord(%s) err = %v, want ErrMalformedRecord", c, err)
		}
	}
}

func TestNewRecord(t *testing.T) {
	a, err := ParseAnalysis([]byte(`{"garments":{"shoes":{"name":"loafers"}},"styling_method":{"styling_points":"clean"}}`))
	if err != nil {
		t.Fatalf("ParseAnalysis: %v", err)
	}
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := NewRecord("look_2", "s3://bucket/look_2.jpg", a, now)
	if err := rec.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !rec.CreatedAt.Equal(now) || !rec.UpdatedAt.Equal(now) {
		t.Errorf("timestamps = %v / %v", rec.CreatedAt, rec.UpdatedAt)
	}
	if rec.StylingEntries() != 1 {
		t.Errorf("StylingEntries = %d", rec.StylingEntries())
	}
	if tags := rec.EffectiveTags(); len(tags) != 1 || tags[0] != DefaultSituation {
		t.Errorf("EffectiveTags = %v", tags)
	}
}

func TestDistinctColorsAndFits(t *testing.T) {
	rec := &OutfitRecord{
		ID: "x",
		Garments: map[Slot]GarmentAttributes{
			SlotTop:    {Name: "shirt", Color: "White", Fit: "slim"},
			SlotBottom: {Name: "jeans", Color: "white", Fit: "wide"},
			SlotShoes:  {Name: "sneakers", Color: "black"},
		},
	}
	if got := rec.DistinctColors(); got != 2 {
		t.Errorf("DistinctColors = %d, want 2", got)
	}
	if got := rec.DistinctFits(); got != 2 {
		t.Errorf("DistinctFits = %d, want 2", got)
	}
}

func TestParseExpertRole(t *testing.T) {
	tests := []struct {
		in     string
		want   ExpertRole
		wantOK bool
	}{
		{"style_analyst", RoleStyleAnalyst, true},
		{"Trend-Expert", RoleTrendExpert, true},
		{"colorist", RoleColorExpert, true},
		{"fitting coordinator", RoleFittingCoordinator, true},
		{"", RoleStyleAnalyst, false},
		{"chef", RoleStyleAnalyst, false},
	}
	for _, tt := range tests {
		got, ok := ParseExpertRole(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseExpertRole(%q) = %v,%v want %v,%v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
