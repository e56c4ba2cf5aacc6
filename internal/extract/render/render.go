package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// Renderer rasterizes single PDF pages for OCR input. Only the OCR path
// needs it; nothing is cached between calls.
type Renderer interface {
	PageCount(path string) (int, error)
	RenderPage(ctx context.Context, path string, pageNum int) ([]byte, error)
}

type popplerRenderer struct {
	logger *logger_i.Logger
}

func NewRenderer() Renderer {
	return &popplerRenderer{logger: logger_i.NewLogger("PageRender")}
}

func (r *popplerRenderer) PageCount(path string) (int, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read page count: %w", err)
	}
	return count, nil
}

// RenderPage renders one page to a PNG using pdftoppm (poppler-utils).
// pdfcpu's image extraction pulls embedded image objects whose numbering
// may not match page order, so actual rasterization goes through poppler,
// at a DPI derived from the page geometry.
func (r *popplerRenderer) RenderPage(ctx context.Context, path string, pageNum int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dpi := renderDPI(r.pageDims(path, pageNum))

	tmpDir, err := os.MkdirTemp("", "medref-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := fmt.Sprintf("%d", pageNum)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", dpi),
		"-singlefile",
		path,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	r.logger.Debug("rendered page", "page", pageNum, "dpi", dpi, "bytes", len(data))
	return data, nil
}

// pageDims returns the page media box in points; on any failure it falls
// back to US Letter so rendering still proceeds at a sane scale.
func (r *popplerRenderer) pageDims(path string, pageNum int) (float64, float64) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		r.logger.Debug("page dims unavailable, using letter default", "error", err)
		return 612, 792
	}
	dims, err := pdfCtx.PageDims()
	if err != nil || pageNum < 1 || pageNum > len(dims) {
		return 612, 792
	}
	return dims[pageNum-1].Width, dims[pageNum-1].Height
}

// renderDPI picks the resolution so the longer bitmap dimension
// approaches the configured target, with the scale clamped to
// [1.5x, 2.0x] of the native 72dpi size. This balances OCR accuracy
// against memory and per-page latency.
func renderDPI(widthPt, heightPt float64) int {
	longer := widthPt
	if heightPt > longer {
		longer = heightPt
	}
	if longer <= 0 {
		longer = 792
	}

	scale := float64(config.RenderTargetPx) / longer
	if scale < config.RenderMinScale {
		scale = config.RenderMinScale
	}
	if scale > config.RenderMaxScale {
		scale = config.RenderMaxScale
	}
	return int(72 * scale)
}
