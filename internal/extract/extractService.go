package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/domain/jobModel"
	"github.com/medref/ExtractionAPI/internal/extract/direct"
	"github.com/medref/ExtractionAPI/internal/extract/embedding"
	"github.com/medref/ExtractionAPI/internal/extract/fields"
	"github.com/medref/ExtractionAPI/internal/extract/ocrengine"
	"github.com/medref/ExtractionAPI/internal/extract/progress"
	"github.com/medref/ExtractionAPI/internal/extract/render"
	"github.com/medref/ExtractionAPI/internal/extract/score"
	"github.com/medref/ExtractionAPI/internal/extract/sectionindex"
	"github.com/medref/ExtractionAPI/internal/extract/segment"
	"github.com/medref/ExtractionAPI/internal/metrics"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// Service is the only surface the worker and the handlers see. The
// extraction internals (renderer, OCR pool, section index) stay behind
// it so they can be swapped for mocks in tests.
type Service interface {
	ProcessExtraction(ctx context.Context, job jobModel.Job) jobModel.Job
	FieldReferences(ctx context.Context, documentId string, fieldValue string, maxSections int) (commonModels.FieldReference, error)
	ExtractFields(ctx context.Context, documentId string) ([]commonModels.ExtractedField, error)
	DeleteDocument(ctx context.Context, documentId string) bool
}

type service struct {
	direct        direct.Extractor
	renderer      render.Renderer
	ocrPool       *ocrengine.Pool
	index         sectionindex.Indexer
	embedder      embedding.Embedder
	fieldClient   fields.Extractor
	resultStore   commonModels.ResultStore
	progressStore commonModels.ProgressStore
	logger        *logger_i.Logger
}

// NewService constructor. index, embedder and fieldClient may be nil;
// the service degrades to lexical-only references and no field
// extraction when they are.
func NewService(
	d direct.Extractor,
	r render.Renderer,
	pool *ocrengine.Pool,
	index sectionindex.Indexer,
	em embedding.Embedder,
	fc fields.Extractor,
	results commonModels.ResultStore,
	progs commonModels.ProgressStore,
) Service {
	return &service{
		direct:        d,
		renderer:      r,
		ocrPool:       pool,
		index:         index,
		embedder:      em,
		fieldClient:   fc,
		resultStore:   results,
		progressStore: progs,
		logger:        logger_i.NewLogger("Extract Service :"),
	}
}

func (s *service) ProcessExtraction(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", jobt.Id)

	run := progress.NewRun(0)
	defer run.Close()
	run.SetCallback(func(ev commonModels.ProgressEvent) {
		if err := s.progressStore.SaveProgress(ctx, jobt.Id, ev); err != nil {
			inMethodLogger.Debug("progress save skipped", "error", err)
		}
	})

	jobt.CurrentStep = jobModel.ExtractInit
	run.Emit(string(jobModel.ExtractInit), 0, 0)

	// Text acquisition
	result, err := s.extractText(ctx, inMethodLogger, &jobt, run)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// no partial result on cancellation
			jobt.Status = jobModel.JobStatusCanceled
			jobt.CurrentStep = jobModel.Error
			return jobt
		}
		if errors.Is(err, errSourceUnreadable) {
			return s.jobError(jobt, err, "SOURCE_UNREADABLE", http.StatusNotFound, false)
		}
		return s.jobError(jobt, err, "EXTRACTION_FAILURE", http.StatusInternalServerError, true)
	}

	result.DocumentId = jobt.Id
	result.DocName = jobt.JobPayload.DocumentName
	result.ExtractedAt = time.Now()

	if result.Error == "" {
		// Segmentation and reference points
		s.executeSegmentStep(inMethodLogger, &jobt, run, &result)

		// Section index, best effort
		s.executeIndexStep(ctx, inMethodLogger, &jobt, run, result)
	} else {
		jobt.JobPayload.ExtractIssue = result.Error
	}

	// Persist
	jobt = logOutput(jobt, jobModel.SavingResult, inMethodLogger)
	run.Emit(string(jobModel.SavingResult), 0.95, result.Pages)
	if err := s.resultStore.SaveResult(ctx, result); err != nil {
		return s.jobError(jobt, err, "RESULT_SAVE_FAILURE", http.StatusInternalServerError, true)
	}

	jobt.JobPayload.IsOcr = result.IsOcr
	jobt.JobPayload.Pages = result.Pages
	jobt.JobPayload.SectionCount = len(result.Sections)
	jobt.JobPayload.ReferenceCount = len(result.References)

	run.Finish(string(jobModel.Complete))
	jobt.CurrentStep = jobModel.Complete
	return jobt
}

// FieldReferences maps a field value back to where it came from in the
// stored document text. Lexical scoring first, semantic search against
// the section index when the lexical pass finds nothing.
func (s *service) FieldReferences(ctx context.Context, documentId string, fieldValue string, maxSections int) (commonModels.FieldReference, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("field_references", time.Since(start)) }()

	result, found := s.resultStore.GetResult(ctx, documentId)
	if !found {
		return commonModels.FieldReference{}, fmt.Errorf("no extraction result for document %s", documentId)
	}
	if result.Error != "" {
		return commonModels.FieldReference{}, fmt.Errorf("document %s failed extraction: %s", documentId, result.Error)
	}

	if strings.TrimSpace(fieldValue) == "" {
		return commonModels.FieldReference{
			Explanation: "Empty field value.",
		}, nil
	}

	matches := score.FindRelevantSections(result.Sections, fieldValue, maxSections)
	if len(matches) > 0 {
		return score.BuildFieldReference(result, fieldValue, matches), nil
	}

	if ref, ok := s.semanticFallback(ctx, documentId, fieldValue, maxSections); ok {
		return ref, nil
	}

	return commonModels.FieldReference{
		HasSourceHighlighting: false,
		Explanation:           "No matching section found for this value.",
	}, nil
}

// ExtractFields runs the collaborator model over the stored text and
// caches its output on the result.
func (s *service) ExtractFields(ctx context.Context, documentId string) ([]commonModels.ExtractedField, error) {
	result, found := s.resultStore.GetResult(ctx, documentId)
	if !found {
		return nil, fmt.Errorf("no extraction result for document %s", documentId)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("document %s failed extraction: %s", documentId, result.Error)
	}
	if len(result.Fields) > 0 {
		return result.Fields, nil
	}
	if s.fieldClient == nil {
		return nil, errors.New("field extraction is not configured")
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("field_extraction", time.Since(start)) }()

	extracted, err := s.fieldClient.Extract(ctx, result.Text)
	if err != nil {
		return nil, err
	}

	result.Fields = extracted
	if err := s.resultStore.SaveResult(ctx, result); err != nil {
		s.logger.Error("Failed to cache extracted fields", "documentId", documentId, "error", err)
	}
	return extracted, nil
}

// DeleteDocument removes the stored result and the section index
// entries. Returns false when no result existed.
func (s *service) DeleteDocument(ctx context.Context, documentId string) bool {
	result, found := s.resultStore.GetResult(ctx, documentId)
	if !found {
		return false
	}

	s.resultStore.DeleteResult(ctx, documentId)
	if s.index != nil && result.Error == "" {
		if err := s.index.DeleteDocument(ctx, documentId); err != nil {
			s.logger.Error("Section index cleanup failed", "documentId", documentId, "error", err)
		}
	}
	return true
}

func (s *service) executeSegmentStep(log *logger_i.Logger, job *jobModel.Job, run *progress.Run, result *commonModels.ExtractionResult) {
	*job = logOutput(*job, jobModel.Segmenting, log)
	run.Emit(string(jobModel.Segmenting), 0.9, result.Pages)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("segmentation", time.Since(start)) }()

	result.Sections = segment.Sections(result.Text)
	result.References = segment.BuildReferencePoints(result.Sections)
}

func (s *service) executeIndexStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, run *progress.Run, result commonModels.ExtractionResult) {
	if s.index == nil || s.embedder == nil || len(result.Sections) == 0 {
		return
	}

	*job = logOutput(*job, jobModel.SectionIndex, log)
	run.Emit(string(jobModel.SectionIndex), 0.92, result.Pages)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("section_indexing", time.Since(start)) }()

	texts := make([]string, len(result.Sections))
	for i, sec := range result.Sections {
		texts[i] = sec.Text
	}

	vectors, err := s.embedder.BatchEmbedding(ctx, texts)
	if err != nil {
		log.Error("Section embedding failed, index skipped", "error", err)
		return
	}
	if err := s.index.IndexSections(ctx, result, vectors); err != nil {
		log.Error("Section indexing failed", "error", err)
	}
}

func (s *service) semanticFallback(ctx context.Context, documentId string, fieldValue string, maxSections int) (commonModels.FieldReference, bool) {
	if s.index == nil || s.embedder == nil {
		return commonModels.FieldReference{}, false
	}

	vector, err := s.embedder.GetEmbedding(ctx, fieldValue)
	if err != nil {
		s.logger.Error("Embedding for reference lookup failed", "error", err)
		return commonModels.FieldReference{}, false
	}

	hits, err := s.index.SearchSections(ctx, documentId, vector, maxSections)
	if err != nil || len(hits) == 0 {
		return commonModels.FieldReference{}, false
	}
	return buildSemanticReference(hits), true
}
