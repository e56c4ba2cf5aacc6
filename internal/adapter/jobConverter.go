package adapter

import (
	"fmt"
	"time"

	"github.com/medref/ExtractionAPI/internal/api"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job, progress *commonModels.ProgressEvent) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:     string(job.Status),
		Extraction: ToExtractionStatus(job, progress),
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToExtractionStatus(job jobModel.Job, progress *commonModels.ProgressEvent) *api.ExtractionStatus {
	status := &api.ExtractionStatus{
		DocumentName: job.JobPayload.DocumentName,
		IsOcr:        job.JobPayload.IsOcr,
		Pages:        job.JobPayload.Pages,
		Step:         string(job.CurrentStep),
		ExtractIssue: job.JobPayload.ExtractIssue,
	}
	if progress != nil {
		status.Progress = progress.Progress
		status.CurrentPage = progress.Page
		if status.Pages == 0 {
			status.Pages = progress.TotalPages
		}
	} else if job.Status == jobModel.JobStatusComplete {
		status.Progress = 1
	}
	return status
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
