package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medref/ExtractionAPI/internal/api"
	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/domain/jobModel"
	"github.com/medref/ExtractionAPI/internal/extract"
	"github.com/medref/ExtractionAPI/internal/job"
	"github.com/medref/ExtractionAPI/internal/metrics"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service *job.Service
	extract extract.Service
}

func InitJobHandler(jobService *job.Service, extractService extract.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, extract: extractService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})

}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id).Info("To create new job")
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func GetLatestProgress(id string, traceId string) *commonModels.ProgressEvent {
	if handlerInstance == nil {
		return nil
	}
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	event, found := handlerInstance.service.ProgressStore.GetProgress(ctxC, id)
	if !found {
		return nil
	}
	return &event
}

func GetResult(r *http.Request, documentId string) (commonModels.ExtractionResult, bool) {
	if handlerInstance == nil || documentId == "" {
		return commonModels.ExtractionResult{}, false
	}
	return handlerInstance.service.ResultStore.GetResult(r.Context(), documentId)
}

func FindFieldReferences(r *http.Request, documentId string, req api.ReferencesRequest) (commonModels.FieldReference, error) {
	maxSections := req.MaxSections
	if maxSections <= 0 {
		maxSections = config.DefaultMaxReferenceSections
	}
	return handlerInstance.extract.FieldReferences(r.Context(), documentId, req.FieldValue, maxSections)
}

func ExtractDocumentFields(r *http.Request, documentId string) ([]commonModels.ExtractedField, error) {
	return handlerInstance.extract.ExtractFields(r.Context(), documentId)
}

func DeleteDocument(r *http.Request, documentId string) bool {
	if handlerInstance == nil || documentId == "" {
		return false
	}
	deleted := handlerInstance.extract.DeleteDocument(r.Context(), documentId)
	handlerInstance.service.JobStore.DeleteJob(r.Context(), documentId)
	return deleted
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = jobModel.JobTypeExtract
	_job.CurrentStep = jobModel.ExtractInit
	_job.JobPayload.DocumentName = newJob.documentName
	_job.JobPayload.SourcePath = newJob.documentPath

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//extraction can spend minutes inside OCR, so beyond the every-N
	//request scaling each queued document also nudges the dispatcher;
	//idle workers retire on their own
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeExtract {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}
