package score

import (
	"strings"
	"testing"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"drops short and stop words", "the care of this patient", []string{"care", "patient"}},
		{"lowercases", "Jane DOE Hypertension", []string{"jane", "hypertension"}},
		{"all stop words", "with that from", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokens(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tokens(%q)[%d] = %s, want %s", tt.query, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScore_Range(t *testing.T) {
	section := "DIAGNOSIS\nEssential hypertension, well controlled on lisinopril."

	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"full keyword match", "diagnosis hypertension", 1.0},
		{"half match", "hypertension cardiomyopathy", 0.5},
		{"no match", "fracture radius", 0.0},
		{"stop words only", "with that", 0.0},
		{"empty query", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(section, tt.query); got != tt.want {
				t.Errorf("Score(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestScore_PhraseBoostCapsAtOne(t *testing.T) {
	section := "The patient presents with essential hypertension well controlled."

	// all three terms match and the phrase occurs verbatim: 1.0 + 0.5 capped
	got := Score(section, "essential hypertension well controlled")
	if got != 1.0 {
		t.Errorf("Boosted score must cap at 1, got %v", got)
	}

	// two-term queries never receive the phrase boost
	if got := Score(section, "essential hypertension"); got != 1.0 {
		t.Errorf("Two-term full match should still be 1 via ratio alone, got %v", got)
	}
}

func TestScore_BoostBeatsScatteredMatch(t *testing.T) {
	phrase := "chronic kidney disease stage three"
	inline := "ASSESSMENT\nPatient has chronic kidney disease stage three progression."
	scattered := "HISTORY\nChronic back pain. Kidney stones in 2015. Heart disease ruled out. Stage unclear at last visit."

	if Score(inline, phrase) <= Score(scattered, phrase) {
		t.Errorf("Verbatim phrase (%v) must outscore scattered keywords (%v)",
			Score(inline, phrase), Score(scattered, phrase))
	}
}

func TestFindRelevantSections(t *testing.T) {
	sections := []commonModels.Section{
		{Type: commonModels.SectionPatientInfo, Text: "PATIENT INFORMATION\nName: Jane Doe", StartOffset: 0, EndOffset: 34},
		{Type: commonModels.SectionDiagnosis, Text: "DIAGNOSIS\nEssential hypertension", StartOffset: 36, EndOffset: 68},
		{Type: commonModels.SectionMedications, Text: "MEDICATIONS\nLisinopril 10mg", StartOffset: 70, EndOffset: 97},
	}

	t.Run("best match first", func(t *testing.T) {
		got := FindRelevantSections(sections, "hypertension diagnosis", 3)
		if len(got) == 0 {
			t.Fatal("Expected at least one relevant section")
		}
		if got[0].Type != commonModels.SectionDiagnosis {
			t.Errorf("Top section got %s, want %s", got[0].Type, commonModels.SectionDiagnosis)
		}
	})

	t.Run("noise floor drops weak matches", func(t *testing.T) {
		got := FindRelevantSections(sections, "amoxicillin dermatitis", 3)
		if len(got) != 0 {
			t.Errorf("Expected no sections above the floor, got %d", len(got))
		}
	})

	t.Run("max sections cap", func(t *testing.T) {
		got := FindRelevantSections(sections, "patient hypertension lisinopril", 1)
		if len(got) > 1 {
			t.Errorf("Expected at most 1 section, got %d", len(got))
		}
	})
}

func TestPageFor(t *testing.T) {
	offsets := []int{0, 120, 400}
	tests := []struct {
		offset int
		want   int
	}{
		{0, 1},
		{119, 1},
		{120, 2},
		{399, 2},
		{400, 3},
		{9999, 3},
	}
	for _, tt := range tests {
		if got := PageFor(tt.offset, offsets); got != tt.want {
			t.Errorf("PageFor(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}

	if got := PageFor(500, nil); got != 1 {
		t.Errorf("PageFor without offsets = %d, want 1", got)
	}
}

func TestBuildFieldReference(t *testing.T) {
	result := commonModels.ExtractionResult{
		DocumentId:  "doc-1",
		PageOffsets: []int{0, 200},
	}
	section := commonModels.Section{
		Type:        commonModels.SectionDiagnosis,
		Text:        "DIAGNOSIS\nChronic kidney disease stage three documented.",
		StartOffset: 210,
		EndOffset:   266,
	}
	matches := []ScoredSection{{Section: section, Score: 1.0}}

	ref := BuildFieldReference(result, "chronic kidney disease", matches)

	if !ref.HasSourceHighlighting {
		t.Fatal("Expected highlighting with a match present")
	}
	if len(ref.SourcePositions) != 1 {
		t.Fatalf("Expected 1 source position, got %d", len(ref.SourcePositions))
	}

	pos := ref.SourcePositions[0]
	if pos.Page != 2 {
		t.Errorf("Page got %d, want 2", pos.Page)
	}
	if pos.MatchType != "exact" {
		t.Errorf("MatchType got %s, want exact for a verbatim 3-term value", pos.MatchType)
	}
	if pos.WordCount != 3 {
		t.Errorf("WordCount got %d, want 3", pos.WordCount)
	}
	if !strings.Contains(pos.Context, "kidney") {
		t.Errorf("Context must surround the match, got %q", pos.Context)
	}
	if !strings.Contains(ref.Explanation, "Diagnosis") {
		t.Errorf("Explanation must name the section, got %q", ref.Explanation)
	}
}

func TestBuildFieldReference_NoMatches(t *testing.T) {
	ref := BuildFieldReference(commonModels.ExtractionResult{}, "anything", nil)
	if ref.HasSourceHighlighting {
		t.Error("No matches must mean no highlighting")
	}
	if len(ref.SourcePositions) != 0 {
		t.Errorf("Expected no positions, got %d", len(ref.SourcePositions))
	}
}
