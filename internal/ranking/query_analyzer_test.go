package ranking

import (
	"reflect"
	"testing"

	"github.com/hyperjump/outfitter/internal/keyword"
	"github.com/hyperjump/outfitter/internal/models"
)

func TestQueryAnalyzer_Analyze(t *testing.T) {
	qa := NewQueryAnalyzer(keyword.NewVocabulary(), DefaultRankingConfig().FormalKeywords)

	tests := []struct {
		name       string
		text       string
		wantText   string
		situations []string
		formal     bool
	}{
		{"introduction meeting", "Introduction Meeting outfit", "introduction meeting outfit", []string{"date", "business"}, true},
		{"office", "OFFICE look", "office look", []string{"business"}, true},
		{"synonym makes it formal", "blind date", "blind date", []string{"date", "business"}, true},
		{"casual", "weekend errand", "weekend errand", []string{"daily"}, false},
		{"no word boundary", "workout gear", "workout gear", []string{"sports"}, false},
		{"empty", "", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := qa.Analyze(models.MatchQuery{Text: tt.text})
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if !reflect.DeepEqual(got.Situations, tt.situations) {
				t.Errorf("Situations = %v, want %v", got.Situations, tt.situations)
			}
			if got.Formal != tt.formal {
				t.Errorf("Formal = %v, want %v", got.Formal, tt.formal)
			}
			if got.Role != models.RoleStyleAnalyst {
				t.Errorf("Role = %q, want default style_analyst", got.Role)
			}
		})
	}
}

func TestRankingConfig_ApplyDefaults(t *testing.T) {
	cfg := &RankingConfig{MonochromePenalty: -0.5, Season: SeasonCold}
	cfg.ApplyDefaults()
	d := DefaultRankingConfig()

	if cfg.MonochromePenalty != -0.5 {
		t.Errorf("MonochromePenalty = %v, want kept -0.5", cfg.MonochromePenalty)
	}
	if cfg.Season != SeasonCold {
		t.Errorf("Season = %q, want kept cold", cfg.Season)
	}
	if cfg.ExclusionScore != d.ExclusionScore || cfg.FormalMismatchPenalty != d.FormalMismatchPenalty || cfg.MaxScore != d.MaxScore {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.JacketTerms, d.JacketTerms) {
		t.Errorf("JacketTerms = %v, want %v", cfg.JacketTerms, d.JacketTerms)
	}
}
