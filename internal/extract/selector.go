package extract

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/domain/jobModel"
	"github.com/medref/ExtractionAPI/internal/extract/direct"
	"github.com/medref/ExtractionAPI/internal/extract/progress"
	"github.com/medref/ExtractionAPI/internal/metrics"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// extractText picks the strategy: the cheap text-layer pass always runs
// first, and OCR only kicks in for PDFs whose text layer yields less
// than the per-page threshold. A terminal failure comes back as a
// result with Error set, not as a Go error; the error return is
// reserved for cancellation and an unreadable source path.
func (s *service) extractText(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, run *progress.Run) (commonModels.ExtractionResult, error) {
	path := job.JobPayload.SourcePath
	if _, statErr := os.Stat(path); statErr != nil {
		return commonModels.ExtractionResult{}, fmt.Errorf("%w: %v", errSourceUnreadable, statErr)
	}

	docType := docTypeFor(job.JobPayload.DocumentName)

	if docType == commonModels.ERR {
		return commonModels.ExtractionResult{
			Error: fmt.Sprintf("unsupported document type: %s", job.JobPayload.DocumentName),
		}, nil
	}

	directRes, directErr := s.executeDirectStep(ctx, log, job, run, path, docType)
	if ctx.Err() != nil {
		return commonModels.ExtractionResult{}, ctx.Err()
	}

	// Flat formats have no raster fallback.
	if docType != commonModels.PDF {
		if directErr != nil {
			return commonModels.ExtractionResult{
				Error: fmt.Sprintf("text extraction failed: %v", directErr),
			}, nil
		}
		metrics.StrategyOutcome("direct")
		metrics.PagesProcessed("direct", directRes.Pages)
		return assembleResult(directRes, false, nil), nil
	}

	if directErr == nil && yieldPerPage(directRes) >= config.YieldThreshold() {
		metrics.StrategyOutcome("direct")
		metrics.PagesProcessed("direct", directRes.Pages)
		return assembleResult(directRes, false, nil), nil
	}

	if directErr != nil {
		log.Warn("Text layer extraction failed, trying OCR", "error", directErr)
	} else {
		log.Info("Text layer yield below threshold, trying OCR", "yield", yieldPerPage(directRes))
	}

	ocrRes, allFailed, ocrErr := s.executeOcrStep(ctx, log, job, run, path)
	if ctx.Err() != nil {
		return commonModels.ExtractionResult{}, ctx.Err()
	}

	// OCR is the last resort: once the text layer fell below threshold
	// its output is never promoted back, so an OCR failure here is
	// terminal even when a few low-yield characters exist.
	if ocrErr != nil {
		return commonModels.ExtractionResult{
			Error: fmt.Sprintf("extraction failed: %v", ocrErr),
		}, nil
	}
	if allFailed {
		return commonModels.ExtractionResult{
			Error: "extraction failed: optical recognition produced no text",
		}, nil
	}

	metrics.StrategyOutcome("ocr")
	metrics.PagesProcessed("ocr", ocrRes.Pages)
	return ocrRes, nil
}

func (s *service) executeDirectStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, run *progress.Run, path string, docType commonModels.DocType) (direct.Result, error) {
	*job = logOutput(*job, jobModel.DirectExtract, log)
	run.Emit(string(jobModel.DirectExtract), 0.05, 0)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("direct_extraction", time.Since(start)) }()

	return s.direct.Extract(ctx, path, docType, run)
}

// executeOcrStep renders and recognizes every page. Single-page
// failures turn into inline markers so one bad page cannot sink the
// document; allFailed reports the case where no page produced text.
func (s *service) executeOcrStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, run *progress.Run, path string) (result commonModels.ExtractionResult, allFailed bool, err error) {
	*job = logOutput(*job, jobModel.OcrExtract, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("ocr_extraction", time.Since(start)) }()

	pageCount, err := s.renderer.PageCount(path)
	if err != nil {
		return commonModels.ExtractionResult{}, false, fmt.Errorf("page count failed: %w", err)
	}
	if pageCount == 0 {
		return commonModels.ExtractionResult{}, false, fmt.Errorf("document has no pages")
	}
	run.SetTotalPages(pageCount)
	run.Emit(string(jobModel.OcrExtract), config.ProgressBaseWeight, 0)

	engine, err := s.ocrPool.Acquire(ctx)
	if err != nil {
		return commonModels.ExtractionResult{}, false, fmt.Errorf("ocr engine unavailable: %w", err)
	}
	defer s.ocrPool.Release()

	pageTexts := make([]string, pageCount)
	var confidences []float64
	failed := 0

	status := string(jobModel.OcrExtract)
	for i := 0; i < pageCount; i++ {
		if ctx.Err() != nil {
			return commonModels.ExtractionResult{}, false, ctx.Err()
		}
		run.EmitOcrPage(status, i, 0)

		png, renderErr := s.renderer.RenderPage(ctx, path, i+1)
		if renderErr != nil {
			log.Error("Page render failed", "page", i+1, "error", renderErr)
			pageTexts[i] = failedPageMarker(i + 1)
			failed++
			continue
		}

		rec, recErr := engine.Recognize(ctx, png, i+1, func(sub float64) {
			run.EmitOcrPage(status, i, sub)
		})
		if recErr != nil {
			if ctx.Err() != nil {
				return commonModels.ExtractionResult{}, false, ctx.Err()
			}
			log.Error("Page recognition failed", "page", i+1, "error", recErr)
			pageTexts[i] = failedPageMarker(i + 1)
			failed++
			continue
		}

		pageTexts[i] = rec.Text
		confidences = append(confidences, rec.Confidence)
		run.EmitOcrPage(status, i, 1)
	}

	if failed == pageCount {
		return commonModels.ExtractionResult{}, true, nil
	}

	text, offsets := joinPages(pageTexts)
	avg := averageConfidence(confidences)

	return commonModels.ExtractionResult{
		Text:        text,
		IsOcr:       true,
		Pages:       pageCount,
		PageOffsets: offsets,
		Confidence:  &avg,
	}, false, nil
}
