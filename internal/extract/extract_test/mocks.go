package extract_test

import (
	"context"
	"strings"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/internal/extract/direct"
	"github.com/medref/ExtractionAPI/internal/extract/ocrengine"
	"github.com/medref/ExtractionAPI/internal/extract/progress"
	"github.com/medref/ExtractionAPI/internal/extract/sectionindex"
)

// MockDirect implements direct.Extractor
type MockDirect struct {
	// Control fields to simulate different behaviors
	OnExtract func(ctx context.Context, path string, docType commonModels.DocType, run *progress.Run) (direct.Result, error)
}

func (m *MockDirect) Extract(ctx context.Context, path string, docType commonModels.DocType, run *progress.Run) (direct.Result, error) {
	if m.OnExtract != nil {
		return m.OnExtract(ctx, path, docType, run)
	}
	text := "PATIENT INFORMATION\n" + strings.Repeat("Name: Jane Doe, DOB 01/02/1960. ", 20)
	return direct.Result{Text: text, Pages: 2, PageOffsets: []int{0, len(text) / 2}}, nil
}

// MockRenderer implements render.Renderer
type MockRenderer struct {
	OnPageCount  func(path string) (int, error)
	OnRenderPage func(ctx context.Context, path string, pageNum int) ([]byte, error)
}

func (m *MockRenderer) PageCount(path string) (int, error) {
	if m.OnPageCount != nil {
		return m.OnPageCount(path)
	}
	return 2, nil
}

func (m *MockRenderer) RenderPage(ctx context.Context, path string, pageNum int) ([]byte, error) {
	if m.OnRenderPage != nil {
		return m.OnRenderPage(ctx, path, pageNum)
	}
	return []byte("png-bytes"), nil
}

// MockEngine implements ocrengine.Engine
type MockEngine struct {
	OnRecognize func(ctx context.Context, png []byte, pageNum int, sub func(float64)) (ocrengine.RecognizedPage, error)
}

func (m *MockEngine) Name() string { return "mock" }

func (m *MockEngine) Recognize(ctx context.Context, png []byte, pageNum int, sub func(float64)) (ocrengine.RecognizedPage, error) {
	if m.OnRecognize != nil {
		return m.OnRecognize(ctx, png, pageNum, sub)
	}
	if sub != nil {
		sub(1)
	}
	return ocrengine.RecognizedPage{Text: "DIAGNOSIS\nEssential hypertension.", Confidence: 0.9}, nil
}

// MockIndexer implements sectionindex.Indexer
type MockIndexer struct {
	OnIndexSections  func(ctx context.Context, result commonModels.ExtractionResult, vectors [][]float32) error
	OnSearchSections func(ctx context.Context, documentId string, vector []float32, limit int) ([]sectionindex.Hit, error)
	OnDeleteDocument func(ctx context.Context, documentId string) error
}

func (m *MockIndexer) IndexSections(ctx context.Context, result commonModels.ExtractionResult, vectors [][]float32) error {
	if m.OnIndexSections != nil {
		return m.OnIndexSections(ctx, result, vectors)
	}
	return nil
}

func (m *MockIndexer) SearchSections(ctx context.Context, documentId string, vector []float32, limit int) ([]sectionindex.Hit, error) {
	if m.OnSearchSections != nil {
		return m.OnSearchSections(ctx, documentId, vector, limit)
	}
	return nil, nil
}

func (m *MockIndexer) DeleteDocument(ctx context.Context, documentId string) error {
	if m.OnDeleteDocument != nil {
		return m.OnDeleteDocument(ctx, documentId)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, query string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	return make([][]float32, len(texts)), nil
}

// MockFieldExtractor implements fields.Extractor
type MockFieldExtractor struct {
	Calls     int
	OnExtract func(ctx context.Context, text string) ([]commonModels.ExtractedField, error)
}

func (m *MockFieldExtractor) Extract(ctx context.Context, text string) ([]commonModels.ExtractedField, error) {
	m.Calls++
	if m.OnExtract != nil {
		return m.OnExtract(ctx, text)
	}
	return []commonModels.ExtractedField{{Number: 1, Name: "Patient Name", Value: "Jane Doe"}}, nil
}

// MockResultStore implements commonModels.ResultStore with an in-memory
// map plus failure injection.
type MockResultStore struct {
	OnSaveResult func(ctx context.Context, result commonModels.ExtractionResult) error
	Saved        map[string]commonModels.ExtractionResult
}

func NewMockResultStore() *MockResultStore {
	return &MockResultStore{Saved: make(map[string]commonModels.ExtractionResult)}
}

func (m *MockResultStore) SaveResult(ctx context.Context, result commonModels.ExtractionResult) error {
	if m.OnSaveResult != nil {
		return m.OnSaveResult(ctx, result)
	}
	m.Saved[result.DocumentId] = result
	return nil
}

func (m *MockResultStore) GetResult(ctx context.Context, documentId string) (commonModels.ExtractionResult, bool) {
	result, found := m.Saved[documentId]
	return result, found
}

func (m *MockResultStore) DeleteResult(ctx context.Context, documentId string) {
	delete(m.Saved, documentId)
}
