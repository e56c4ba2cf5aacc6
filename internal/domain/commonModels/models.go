package commonModels

import (
	"context"
	"time"
)

type Document struct {
	Id         string    `json:"document_id"`
	Name       string    `json:"doc_name"`
	SourcePath string    `json:"source_path"`
	UploadedAt time.Time `json:"uploaded_at"`
	Type       DocType   `json:"contentType"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var ERR DocType = "ERROR"

type SectionType string

const (
	SectionPatientInfo        SectionType = "Patient Information"
	SectionReferringPhysician SectionType = "Referring Physician"
	SectionMedicalHistory     SectionType = "Medical History"
	SectionMedications        SectionType = "Medications"
	SectionLabs               SectionType = "Labs/Studies"
	SectionDiagnosis          SectionType = "Diagnosis"
	SectionReferralReason     SectionType = "Reason for Referral"
	SectionGeneral            SectionType = "General"
)

// Section is a classified contiguous span of the extracted text.
// Offsets index into ExtractionResult.Text; sections never overlap and
// always appear in document order.
type Section struct {
	Type        SectionType `json:"type"`
	Text        string      `json:"text"`
	StartOffset int         `json:"start_offset"`
	EndOffset   int         `json:"end_offset"`
}

type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ReferencePoint is the per-section display record for the reviewer UI.
// Derived data: recomputed whenever the ExtractionResult is recomputed.
type ReferencePoint struct {
	Id       string      `json:"id"`
	Text     string      `json:"text"` //truncated preview
	Type     SectionType `json:"type"`
	Position Position    `json:"position"`
}

// ExtractionResult is produced once per document by the pipeline. It is
// never partially valid: on terminal failure Text is empty and Error is
// set, and the call still returns it as a success payload.
type ExtractionResult struct {
	DocumentId  string           `json:"document_id"`
	DocName     string           `json:"doc_name"`
	Text        string           `json:"text"`
	IsOcr       bool             `json:"is_ocr"`
	Pages       int              `json:"pages"`
	PageOffsets []int            `json:"page_offsets,omitempty"` //char offset where each page starts
	Confidence  *float64         `json:"confidence,omitempty"`   //OCR only
	Sections    []Section        `json:"sections,omitempty"`
	References  []ReferencePoint `json:"references,omitempty"`
	Fields      []ExtractedField `json:"fields,omitempty"` //cached collaborator output
	Error       string           `json:"error,omitempty"`
	ExtractedAt time.Time        `json:"extracted_at"`
}

// SourcePosition ties a field value to one place in the document. X/Y are
// layout coordinates; plain-text extraction cannot recover them, so they
// stay zero and the reviewer highlights the whole section span.
type SourcePosition struct {
	Page       int     `json:"page"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"` //"exact", "keyword" or "semantic"
	WordCount  int     `json:"word_count"`
	Context    string  `json:"context"`
}

// FieldReference is ephemeral: recomputed on demand per (document, value)
// pair and never persisted.
type FieldReference struct {
	SourcePositions       []SourcePosition `json:"source_positions"`
	HasSourceHighlighting bool             `json:"has_source_highlighting"`
	Explanation           string           `json:"explanation"`
}

type ExtractedField struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// ProgressEvent is transient; only the most recent event matters to a
// consumer. Progress is non-decreasing within one extraction run.
type ProgressEvent struct {
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
}

type ResultStore interface {
	SaveResult(ctx context.Context, result ExtractionResult) error
	GetResult(ctx context.Context, documentId string) (ExtractionResult, bool)
	DeleteResult(ctx context.Context, documentId string)
}

type ProgressStore interface {
	SaveProgress(ctx context.Context, jobId string, event ProgressEvent) error
	GetProgress(ctx context.Context, jobId string) (ProgressEvent, bool)
}
