package direct

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/extract/progress"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// Result is the output of the text-layer path. PageOffsets records the
// char offset where each page starts in Text.
type Result struct {
	Text        string
	Pages       int
	PageOffsets []int
}

type Extractor interface {
	Extract(ctx context.Context, path string, docType commonModels.DocType, run *progress.Run) (Result, error)
}

type pdfExtractor struct {
	logger *logger_i.Logger
}

func NewExtractor() Extractor {
	return &pdfExtractor{logger: logger_i.NewLogger("DirectExtract")}
}

func (e *pdfExtractor) Extract(ctx context.Context, path string, docType commonModels.DocType, run *progress.Run) (Result, error) {
	switch docType {
	case commonModels.PDF:
		return e.extractPDF(ctx, path, run)
	case commonModels.DOCX:
		return e.extractFlat(path)
	default:
		return Result{}, fmt.Errorf("unsupported content type: %s", docType)
	}
}

func (e *pdfExtractor) extractPDF(ctx context.Context, path string, run *progress.Run) (Result, error) {
	e.logger.Debug("extractPDF", "attempting extraction", path)
	f, err := pdf.Open(path)
	if err != nil {
		e.logger.Error("failed opening of pdf file")
		return Result{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	run.SetTotalPages(numPages)
	e.logger.Debug("extractPDF", "number of pages", numPages)

	var sb strings.Builder
	offsets := make([]int, 0, numPages)

	//pages strictly in order: page N+1 is not started until N completes,
	//so progress stays monotonic and memory is bounded to one page's items
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if i > 1 {
			sb.WriteString("\n\n")
		}
		offsets = append(offsets, sb.Len())

		page := f.Page(i)
		if page.V.IsNull() {
			e.logger.Debug("extractPDF", "page value is null, page", i)
			continue
		}

		content, err := protectContent(page)
		if err != nil {
			// Log warning but continue with other pages
			e.logger.Error("Error parsing page content", "page", i, "Error", err)
			continue
		}

		sb.WriteString(joinItems(toItems(content.Text)))
		run.Emit(fmt.Sprintf("Reading text layer (page %d of %d)", i, numPages),
			pageProgress(i, numPages), i)
	}

	return Result{Text: sb.String(), Pages: numPages, PageOffsets: offsets}, nil
}

// extractFlat reads a .odt, .docx, .rtf or plaintext referral and returns
// the content as one page.
func (e *pdfExtractor) extractFlat(path string) (Result, error) {
	text, err := cat.File(path)
	if err != nil {
		e.logger.Error("Error extracting content from doc")
		return Result{}, fmt.Errorf("failed to extract docx: %w", err)
	}
	return Result{Text: text, Pages: 1, PageOffsets: []int{0}}, nil
}

// pageProgress maps text-layer page completion into the leading load
// band. It never exceeds the band, so a later raster pass starting at
// the band boundary is not pinned by the monotonic clamp.
func pageProgress(page, total int) float64 {
	if total < 1 {
		return config.ProgressBaseWeight
	}
	return config.ProgressBaseWeight * float64(page) / float64(total)
}

type textItem struct {
	Y float64
	S string
}

func toItems(texts []pdf.Text) []textItem {
	items := make([]textItem, len(texts))
	for i, t := range texts {
		items[i] = textItem{Y: t.Y, S: t.S}
	}
	return items
}

// joinItems concatenates glyph runs into lines: a line break is inserted
// whenever the vertical coordinate changes from the previous item,
// otherwise runs are appended with no separator.
func joinItems(items []textItem) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 && item.Y != items[i-1].Y {
			sb.WriteString("\n")
		}
		sb.WriteString(item.S)
	}
	return sb.String()
}

// protectContent guards the parser: dslipak/pdf can hang on malformed
// content streams, so each page gets its own goroutine and deadline.
func protectContent(page pdf.Page) (pdf.Content, error) {
	type result struct {
		content pdf.Content
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{pdf.Content{}, fmt.Errorf("page parse panic: %v", r)}
			}
		}()
		content := page.Content()
		resChan <- result{content, nil}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.DirectPageTimeout):
		return pdf.Content{}, errors.New("timeout")
	}
}
