package direct

import (
	"math"
	"testing"

	"github.com/dslipak/pdf"

	"github.com/medref/ExtractionAPI/internal/config"
)

func TestJoinItems(t *testing.T) {
	tests := []struct {
		name  string
		items []textItem
		want  string
	}{
		{
			name:  "empty",
			items: nil,
			want:  "",
		},
		{
			name: "same line no separator",
			items: []textItem{
				{Y: 700, S: "Patient"},
				{Y: 700, S: " Name:"},
				{Y: 700, S: " Jane Doe"},
			},
			want: "Patient Name: Jane Doe",
		},
		{
			name: "line break on y change",
			items: []textItem{
				{Y: 700, S: "PATIENT INFORMATION"},
				{Y: 680, S: "Name: Jane Doe"},
				{Y: 660, S: "DOB: 01/02/1960"},
			},
			want: "PATIENT INFORMATION\nName: Jane Doe\nDOB: 01/02/1960",
		},
		{
			name: "y returning to earlier value still breaks",
			items: []textItem{
				{Y: 700, S: "left"},
				{Y: 680, S: "below"},
				{Y: 700, S: "right"},
			},
			want: "left\nbelow\nright",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinItems(tt.items); got != tt.want {
				t.Errorf("joinItems() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToItems(t *testing.T) {
	texts := []pdf.Text{
		{Y: 700, S: "REFERRAL"},
		{Y: 680, S: "Urgent"},
	}

	items := toItems(texts)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Y != 700 || items[0].S != "REFERRAL" {
		t.Errorf("First item = %+v", items[0])
	}
	if items[1].Y != 680 || items[1].S != "Urgent" {
		t.Errorf("Second item = %+v", items[1])
	}
}

func TestPageProgress_StaysInLoadBand(t *testing.T) {
	tests := []struct {
		name  string
		page  int
		total int
		want  float64
	}{
		{name: "first of four", page: 1, total: 4, want: 0.05},
		{name: "midway", page: 2, total: 4, want: 0.1},
		{name: "last page caps at band boundary", page: 4, total: 4, want: config.ProgressBaseWeight},
		{name: "single page", page: 1, total: 1, want: config.ProgressBaseWeight},
		{name: "zero total guard", page: 0, total: 0, want: config.ProgressBaseWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pageProgress(tt.page, tt.total)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("pageProgress(%d, %d) = %v, want %v", tt.page, tt.total, got, tt.want)
			}
			if got > config.ProgressBaseWeight {
				t.Errorf("pageProgress(%d, %d) = %v exceeds the load band", tt.page, tt.total, got)
			}
		})
	}
}
