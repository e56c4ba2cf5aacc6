package ocrengine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"unicode"

	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// ocrPrompt is shared by all vision engines. Referrals are transcribed
// verbatim: no summarizing, no corrections, reading order preserved.
const ocrPrompt = "Transcribe every piece of text visible in this scanned medical document page. " +
	"Preserve the reading order and line breaks. Output the raw text only - " +
	"no commentary, no markdown fences, no corrections of what you read."

type RecognizedPage struct {
	Text       string
	Confidence float64
}

// Engine wraps one recognition backend. Recognize reports sub-progress
// in [0,1] through the callback as the page streams in. Implementations
// are NOT safe for concurrent calls; the Pool serializes access.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, png []byte, pageNum int, sub func(float64)) (RecognizedPage, error)
}

// Pool owns the engine singleton. Engines are expensive to initialize,
// so one instance is shared across pages and across documents within the
// process lifetime, reference counted, and torn down when the last
// extraction releases it (or on shutdown).
type Pool struct {
	mu      sync.Mutex
	factory func(ctx context.Context) (Engine, error)
	engine  Engine
	refs    int

	recognizeMu sync.Mutex
	logger      *logger_i.Logger
}

func NewPool(factory func(ctx context.Context) (Engine, error)) *Pool {
	return &Pool{
		factory: factory,
		logger:  logger_i.NewLogger("OcrEnginePool"),
	}
}

// Acquire lazily constructs the engine and hands out a serialized view
// of it. Every successful Acquire must be paired with Release.
func (p *Pool) Acquire(ctx context.Context) (Engine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		engine, err := p.factory(ctx)
		if err != nil {
			return nil, fmt.Errorf("ocr engine init failed: %w", err)
		}
		p.engine = engine
		p.logger.Info("OCR engine initialized", "engine", engine.Name())
	}
	p.refs++
	return &serialEngine{inner: p.engine, mu: &p.recognizeMu}, nil
}

func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.refs == 0 {
		return
	}
	p.refs--
	if p.refs > 0 {
		return
	}
	if closer, ok := p.engine.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error("Error closing OCR engine", "error", err)
		}
	}
	p.logger.Info("OCR engine released")
	p.engine = nil
}

// serialEngine funnels all recognition through one mutex: the underlying
// engines do not tolerate concurrent recognition calls.
type serialEngine struct {
	mu    *sync.Mutex
	inner Engine
}

func (s *serialEngine) Name() string { return s.inner.Name() }

func (s *serialEngine) Recognize(ctx context.Context, png []byte, pageNum int, sub func(float64)) (RecognizedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Recognize(ctx, png, pageNum, sub)
}

// estimateConfidence grades recognized text by how word-like it is.
// Vision models expose no token confidences, so the score is the ratio
// of letters, digits and spacing to everything else - garbage pages full
// of control runes and symbol noise score low.
func estimateConfidence(text string) float64 {
	if text == "" {
		return 0
	}
	total := 0
	wordlike := 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
			r == '.' || r == ',' || r == ':' || r == '-' || r == '/' || r == '(' || r == ')' {
			wordlike++
		}
	}
	return float64(wordlike) / float64(total)
}
