package api

import (
	"time"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"d3c2f1aa-9b1e-4f0c-8a2d-0f6a1c2b3d4e"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type ExtractionStatus struct {
	DocumentName string  `json:"document_name" example:"referral_jane_doe.pdf"`
	IsOcr        bool    `json:"is_ocr" example:"false"`
	Pages        int     `json:"pages" example:"3"`
	Progress     float64 `json:"progress" example:"0.65"`
	CurrentPage  int     `json:"current_page,omitempty" example:"2"`
	Step         string  `json:"step,omitempty" example:"OcrExtract"`
	ExtractIssue string  `json:"extract_issue,omitempty"`
}

type Result struct {
	Status     string            `json:"status"`
	Extraction *ExtractionStatus `json:"extraction,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type FieldsResponse struct {
	DocumentId string                        `json:"document_id"`
	Fields     []commonModels.ExtractedField `json:"fields"`
}

// requests---------------------

type ReferencesRequest struct {
	FieldValue  string `json:"field_value" validate:"required" example:"Jane Doe"`
	MaxSections int    `json:"max_sections,omitempty" example:"3"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
