package cli

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/outfitter/internal/models"
)

func sampleResult() *models.MatchResult {
	return &models.MatchResult{
		Found: true,
		Record: &models.OutfitRecord{
			ID: "look_01_ab12cd34",
			Garments: map[models.Slot]models.GarmentAttributes{
				models.SlotTop:    {Name: "oxford shirt", Color: "white", Fit: "regular"},
				models.SlotBottom: {Name: "slacks", Color: "navy"},
			},
			StylingMethod: map[string]string{models.StylingTuckDegree: "half tuck"},
			SituationTags: []string{"business"},
			SourceURL:     "https://cdn.example.com/look_01.jpg",
		},
		Score:          0.7,
		Contributions:  map[string]float64{"situation": 0.4, "styling": 0.3},
		Path:           models.PathIndex,
		CandidateCount: 3,
		SessionID:      "s1",
		Role:           models.RoleStyleAnalyst,
		Response:       "Half tuck the shirt.",
	}
}

func TestWriteMatchResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMatchResult(&buf, sampleResult(), OutputJSON, false); err != nil {
		t.Fatalf("WriteMatchResult(json): %v", err)
	}
	var decoded models.MatchResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if !decoded.Found || decoded.Record.ID != "look_01_ab12cd34" || decoded.Contributions["situation"] != 0.4 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteMatchResult_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMatchResult(&buf, sampleResult(), OutputText, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Matched look_01_ab12cd34 | Score: 0.7000 | 3 candidates via index",
		"top:         oxford shirt, white, regular",
		"bottom:      slacks, navy",
		"styling:     tuck_degree = half tuck",
		"situations:  business",
		"Score breakdown:",
		"situation      +0.4000",
		"Half tuck the shirt.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = WriteMatchResult(&buf, sampleResult(), OutputText, false)
	if strings.Contains(buf.String(), "Score breakdown") {
		t.Error("breakdown should only be written with explain")
	}
}

func TestWriteMatchResult_NotFound(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteMatchResult(&buf, &models.MatchResult{Reason: models.ReasonNoCandidates}, OutputText, true)
	if !strings.Contains(buf.String(), "No outfit found (no_candidates)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	if ParseOutputFormat("JSON") != OutputJSON || ParseOutputFormat("") != OutputText || ParseOutputFormat("yaml") != OutputText {
		t.Error("unexpected output format parsing")
	}
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"flags after query are moved first", []string{"navy blazer", "-role", "colorist"}, []string{"-role", "colorist", "navy blazer"}},
		{"flags first returns unchanged", []string{"-explain", "date"}, []string{"-explain", "date"}},
		{"query only returns unchanged", []string{"date"}, []string{"date"}},
		{"empty args returns unchanged", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReorderArgs(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReorderArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	if got := BuildQuery([]string{" business", "meeting "}); got != "business meeting" {
		t.Errorf("BuildQuery() = %q", got)
	}
}
