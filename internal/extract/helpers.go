package extract

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/domain/jobModel"
	"github.com/medref/ExtractionAPI/internal/extract/direct"
	"github.com/medref/ExtractionAPI/internal/extract/sectionindex"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("ProcessExtraction", "Current Status", job.CurrentStep)
	return job
}

// errSourceUnreadable marks a source path that cannot be stat'd. It
// fails the job before any strategy runs and is never retried.
var errSourceUnreadable = errors.New("source document unreadable")

func (s *service) jobError(job jobModel.Job, err error, message string, code int, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	job.Error = jobModel.JobError{
		Code:    code,
		Message: http.StatusText(code),
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	return job
}

func docTypeFor(documentName string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(documentName)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".txt", ".rtf":
		return commonModels.DOCX
	default:
		return commonModels.ERR
	}
}

func yieldPerPage(res direct.Result) float64 {
	pages := res.Pages
	if pages < 1 {
		pages = 1
	}
	return float64(len(res.Text)) / float64(pages)
}

func assembleResult(res direct.Result, isOcr bool, confidence *float64) commonModels.ExtractionResult {
	return commonModels.ExtractionResult{
		Text:        res.Text,
		IsOcr:       isOcr,
		Pages:       res.Pages,
		PageOffsets: res.PageOffsets,
		Confidence:  confidence,
	}
}

func failedPageMarker(pageNum int) string {
	return fmt.Sprintf("[OCR failed: page %d]", pageNum)
}

// joinPages concatenates page texts with a blank line between pages and
// records the start offset of each page in the joined string.
func joinPages(pageTexts []string) (string, []int) {
	var sb strings.Builder
	offsets := make([]int, len(pageTexts))
	for i, t := range pageTexts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		offsets[i] = sb.Len()
		sb.WriteString(t)
	}
	return sb.String(), offsets
}

func averageConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences))
}

func buildSemanticReference(hits []sectionindex.Hit) commonModels.FieldReference {
	positions := make([]commonModels.SourcePosition, 0, len(hits))
	for _, h := range hits {
		positions = append(positions, commonModels.SourcePosition{
			Page:       h.Page,
			Start:      h.Start,
			End:        h.End,
			Confidence: float64(h.Score),
			MatchType:  "semantic",
			Context:    snippet(h.Text),
		})
	}
	explanation := "Matched by semantic similarity."
	if len(hits) > 0 {
		explanation = fmt.Sprintf("Matched by semantic similarity in the %q section.", hits[0].SectionType)
	}
	return commonModels.FieldReference{
		SourcePositions:       positions,
		HasSourceHighlighting: len(positions) > 0,
		Explanation:           explanation,
	}
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= 160 {
		return s
	}
	return string(runes[:160]) + "..."
}
