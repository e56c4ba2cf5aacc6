package segment

import (
	"strings"
	"testing"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

func TestSections_TwoSectionReferral(t *testing.T) {
	text := "PATIENT INFORMATION\nName: Jane Doe\nDOB: 01/01/1980\n\nDIAGNOSIS\nEssential hypertension"

	sections := Sections(text)
	if len(sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d: %+v", len(sections), sections)
	}

	if sections[0].Type != commonModels.SectionPatientInfo {
		t.Errorf("First section type got %s, want %s", sections[0].Type, commonModels.SectionPatientInfo)
	}
	if !strings.Contains(sections[0].Text, "Jane Doe") {
		t.Errorf("Header paragraph must belong to the section it opens, got %q", sections[0].Text)
	}

	if sections[1].Type != commonModels.SectionDiagnosis {
		t.Errorf("Second section type got %s, want %s", sections[1].Type, commonModels.SectionDiagnosis)
	}
}

func TestSections_OffsetsIndexIntoSource(t *testing.T) {
	text := "REASON FOR REFERRAL\nEvaluation of chest pain\n\nMEDICATIONS\nLisinopril 10mg daily"

	for _, s := range Sections(text) {
		span := text[s.StartOffset:s.EndOffset]
		if span != s.Text {
			t.Errorf("Section span mismatch for %s:\n span: %q\n text: %q", s.Type, span, s.Text)
		}
	}
}

func TestSections_BodyWithoutHeaderOpensGeneral(t *testing.T) {
	text := "The patient was seen today for a follow-up visit and reports feeling well overall without acute complaints."

	sections := Sections(text)
	if len(sections) != 1 {
		t.Fatalf("Expected 1 section, got %d", len(sections))
	}
	if sections[0].Type != commonModels.SectionGeneral {
		t.Errorf("Type got %s, want %s", sections[0].Type, commonModels.SectionGeneral)
	}
}

func TestSections_PageMarkersAreDropped(t *testing.T) {
	text := "MEDICAL HISTORY\nDiabetes mellitus type 2\n\n--- Page 2 of 3 ---\n\nContinued insulin therapy since 2019."

	sections := Sections(text)
	for _, s := range Sections(text) {
		if strings.Contains(s.Text, "Page 2") {
			t.Errorf("Page marker leaked into section text: %q", s.Text)
		}
	}
	if len(sections) != 1 {
		t.Fatalf("Expected marker-free single section, got %d", len(sections))
	}
	if !strings.Contains(sections[0].Text, "insulin") {
		t.Error("Body paragraph after a page marker must stay in the open section")
	}
}

func TestIsHeader_Rules(t *testing.T) {
	tests := []struct {
		name string
		para string
		want bool
	}{
		{"short all caps", "PATIENT INFORMATION", true},
		{"trailing colon", "Current Medications:", true},
		{"capitalized colon", "Reason For Referral:", true},
		{"list marker", "1.", true},
		{"roman list marker", "IV.", true},
		{"single short token", "Allergies", true},
		{"keyword in caps line", "RELEVANT LAB FINDINGS FROM LAST VISIT", true},
		{"plain sentence", "The patient reports occasional dizziness.", false},
		{"long mixed case", "Patient was advised to continue current medications and follow up in six weeks", false},
		{"empty", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHeader(tt.para); got != tt.want {
				t.Errorf("isHeader(%q) = %v, want %v", tt.para, got, tt.want)
			}
		})
	}
}

func TestClassify_Priorities(t *testing.T) {
	tests := []struct {
		header string
		want   commonModels.SectionType
	}{
		{"REFERRING PHYSICIAN", commonModels.SectionReferringPhysician},
		{"Referring Physician History", commonModels.SectionReferringPhysician},
		{"PATIENT DEMOGRAPHICS", commonModels.SectionPatientInfo},
		{"CURRENT MEDICATIONS", commonModels.SectionMedications},
		{"ALLERGIES", commonModels.SectionMedications},
		{"LABS AND STUDIES", commonModels.SectionLabs},
		{"IMAGING", commonModels.SectionLabs},
		{"ASSESSMENT AND PLAN", commonModels.SectionDiagnosis},
		{"PAST MEDICAL HISTORY", commonModels.SectionMedicalHistory},
		{"REASON FOR VISIT", commonModels.SectionReferralReason},
		{"SIGNATURE", commonModels.SectionGeneral},
	}

	for _, tt := range tests {
		if got := classify(tt.header); got != tt.want {
			t.Errorf("classify(%q) = %s, want %s", tt.header, got, tt.want)
		}
	}
}

func TestBuildReferencePoints(t *testing.T) {
	long := strings.Repeat("History of present illness continues. ", 10)
	sections := []commonModels.Section{
		{Type: commonModels.SectionDiagnosis, Text: "DIAGNOSIS\nHypertension", StartOffset: 0, EndOffset: 23},
		{Type: commonModels.SectionMedicalHistory, Text: long, StartOffset: 25, EndOffset: 25 + len(long)},
	}

	refs := BuildReferencePoints(sections)
	if len(refs) != 2 {
		t.Fatalf("Expected 2 reference points, got %d", len(refs))
	}
	if refs[0].Id == "" || refs[0].Id == refs[1].Id {
		t.Error("Reference points need unique non-empty ids")
	}
	if refs[0].Text != sections[0].Text {
		t.Errorf("Short section must not be truncated, got %q", refs[0].Text)
	}
	if !strings.HasSuffix(refs[1].Text, "...") {
		t.Errorf("Long section preview must be truncated, got %q", refs[1].Text)
	}
	if refs[1].Position.Start != 25 {
		t.Errorf("Position start got %d, want 25", refs[1].Position.Start)
	}
}
