package extract

import (
	"strings"
	"testing"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/extract/direct"
)

func TestDocTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want commonModels.DocType
	}{
		{"referral.pdf", commonModels.PDF},
		{"REFERRAL.PDF", commonModels.PDF},
		{"notes.docx", commonModels.DOCX},
		{"notes.txt", commonModels.DOCX},
		{"notes.rtf", commonModels.DOCX},
		{"scan.png", commonModels.ERR},
		{"noextension", commonModels.ERR},
		{"", commonModels.ERR},
	}

	for _, tt := range tests {
		if got := docTypeFor(tt.name); got != tt.want {
			t.Errorf("docTypeFor(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestYieldPerPage(t *testing.T) {
	tests := []struct {
		name string
		res  direct.Result
		want float64
	}{
		{"two pages", direct.Result{Text: strings.Repeat("a", 300), Pages: 2}, 150},
		{"zero pages guards division", direct.Result{Text: "ab", Pages: 0}, 2},
		{"empty", direct.Result{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yieldPerPage(tt.res); got != tt.want {
				t.Errorf("yieldPerPage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoinPages(t *testing.T) {
	text, offsets := joinPages([]string{"first page", "second page", "third"})

	if text != "first page\n\nsecond page\n\nthird" {
		t.Errorf("Joined text = %q", text)
	}
	want := []int{0, 12, 25}
	if len(offsets) != len(want) {
		t.Fatalf("Got %d offsets, want %d", len(offsets), len(want))
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("Offset %d = %d, want %d", i, offsets[i], want[i])
		}
	}

	// offsets must point at the start of each page in the joined text
	if !strings.HasPrefix(text[offsets[1]:], "second page") {
		t.Error("Second offset does not land on the second page")
	}
}

func TestJoinPages_FailureMarkersStayInPlace(t *testing.T) {
	text, offsets := joinPages([]string{"page one text", failedPageMarker(2), "page three text"})

	if !strings.HasPrefix(text[offsets[1]:], "[OCR failed: page 2]") {
		t.Errorf("Marker not at its page position: %q", text[offsets[1]:])
	}
}

func TestAverageConfidence(t *testing.T) {
	if got := averageConfidence(nil); got != 0 {
		t.Errorf("Empty slice = %v, want 0", got)
	}
	if got := averageConfidence([]float64{0.5, 1.0}); got != 0.75 {
		t.Errorf("averageConfidence = %v, want 0.75", got)
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("line one\n  line   two"); got != "line one line two" {
		t.Errorf("Whitespace collapse got %q", got)
	}

	long := strings.Repeat("word ", 100)
	got := snippet(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Long text must be truncated with an ellipsis, got %q", got)
	}
	if len([]rune(got)) != 163 {
		t.Errorf("Truncated snippet length = %d, want 163", len([]rune(got)))
	}
}
