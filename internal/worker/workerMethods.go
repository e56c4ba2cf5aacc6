package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/medref/ExtractionAPI/internal/config"
	jobmodel "github.com/medref/ExtractionAPI/internal/domain/jobModel"
	"github.com/medref/ExtractionAPI/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobTimeout)
	defer cancel()
	logger.With("traceId", job.TraceId).Debug("Processing job:", "job Id:", job.Id)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	job = _extractService.ProcessExtraction(ctx, job)

	job.EndTime = time.Now()

	// ctx may already be expired here; the terminal state still has to land
	saveCtx, saveCancel := context.WithTimeout(context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId), 5*time.Second)
	defer saveCancel()
	switch job.Status {
	case jobmodel.JobStatusError, jobmodel.JobStatusCanceled:
		saveJobState(saveCtx, job, job.Status)
	default:
		saveJobState(saveCtx, job, jobmodel.JobStatusComplete)
	}
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
}
