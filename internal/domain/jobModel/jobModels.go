package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"
	JobStatusCanceled JobStatus = "CANCELED"

	ExtractInit    InternalStatus = "ExtractInit"
	DirectExtract  InternalStatus = "DirectExtract"
	OcrExtract     InternalStatus = "OcrExtract"
	Segmenting     InternalStatus = "Segmenting"
	SectionIndex   InternalStatus = "SectionIndex"
	SavingResult   InternalStatus = "SavingResult"
	Error          InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeExtract JobType = "Extract"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	DocumentName   string `json:"document_name,omitempty"`
	SourcePath     string `json:"source_path,omitempty"`
	IsOcr          bool   `json:"is_ocr,omitempty"`
	Pages          int    `json:"pages,omitempty"`
	ExtractIssue   string `json:"extract_issue,omitempty"` //non-fatal pipeline error, see result store
	SectionCount   int    `json:"section_count,omitempty"`
	ReferenceCount int    `json:"reference_count,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
