package fields

import "testing"

func TestParseFields(t *testing.T) {
	model := `1|Jane Doe
2|01/02/1960
3|NOT FOUND
4|Blue Shield
15|Routine`

	got := ParseFields(model)
	if len(got) != 4 {
		t.Fatalf("Expected 4 fields, got %d: %+v", len(got), got)
	}

	if got[0].Number != 1 || got[0].Name != "Patient Name" || got[0].Value != "Jane Doe" {
		t.Errorf("First field = %+v", got[0])
	}
	if got[3].Number != 15 || got[3].Name != "Urgency" || got[3].Value != "Routine" {
		t.Errorf("Last field = %+v", got[3])
	}
}

func TestParseFields_SkipsMalformedLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty input", "", 0},
		{"no separator", "Patient Name: Jane Doe", 0},
		{"non numeric prefix", "one|Jane Doe", 0},
		{"number zero", "0|Jane Doe", 0},
		{"number past schema", "16|Jane Doe", 0},
		{"empty value", "1|   ", 0},
		{"not found any case", "1|not found\n2|Not Found", 0},
		{"commentary around valid line", "Here are the fields:\n1|Jane Doe\nDone.", 1},
		{"value containing pipes kept whole", "5|ABC|123", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFields(tt.input); len(got) != tt.want {
				t.Errorf("ParseFields(%q) returned %d fields, want %d", tt.input, len(got), tt.want)
			}
		})
	}
}

func TestParseFields_PipeInValue(t *testing.T) {
	got := ParseFields("5|ABC|123")
	if len(got) != 1 {
		t.Fatalf("Expected 1 field, got %d", len(got))
	}
	if got[0].Value != "ABC|123" {
		t.Errorf("Value = %q, want the pipe preserved", got[0].Value)
	}
}

func TestParseFields_FirstDuplicateWins(t *testing.T) {
	got := ParseFields("1|Jane Doe\n1|John Roe")
	if len(got) != 1 {
		t.Fatalf("Expected 1 field, got %d", len(got))
	}
	if got[0].Value != "Jane Doe" {
		t.Errorf("Value = %q, want the first occurrence kept", got[0].Value)
	}
}

func TestParseFields_WhitespaceTolerant(t *testing.T) {
	got := ParseFields("  11 |  Essential hypertension  ")
	if len(got) != 1 {
		t.Fatalf("Expected 1 field, got %d", len(got))
	}
	if got[0].Name != "Diagnosis" || got[0].Value != "Essential hypertension" {
		t.Errorf("Field = %+v", got[0])
	}
}
