package store

import (
	"context"
	"sync"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

type InMemoryResultStore struct {
	mu        *sync.RWMutex
	resultMap map[string]commonModels.ExtractionResult
}

func InitInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{
		mu:        new(sync.RWMutex),
		resultMap: make(map[string]commonModels.ExtractionResult),
	}
}

func (store *InMemoryResultStore) SaveResult(ctx context.Context, result commonModels.ExtractionResult) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.resultMap[result.DocumentId] = result
	return nil
}

func (store *InMemoryResultStore) GetResult(ctx context.Context, documentId string) (commonModels.ExtractionResult, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	result, found := store.resultMap[documentId]
	return result, found
}

func (store *InMemoryResultStore) DeleteResult(ctx context.Context, documentId string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.resultMap, documentId)
}
