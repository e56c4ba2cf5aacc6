package store

import (
	"context"
	"sync"

	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

// InMemoryProgressStore holds the latest event per job, same overwrite
// semantics as the Redis variant.
type InMemoryProgressStore struct {
	mu       *sync.RWMutex
	eventMap map[string]commonModels.ProgressEvent
}

func InitInMemoryProgressStore() *InMemoryProgressStore {
	return &InMemoryProgressStore{
		mu:       new(sync.RWMutex),
		eventMap: make(map[string]commonModels.ProgressEvent),
	}
}

func (store *InMemoryProgressStore) SaveProgress(ctx context.Context, jobId string, event commonModels.ProgressEvent) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.eventMap[jobId] = event
	return nil
}

func (store *InMemoryProgressStore) GetProgress(ctx context.Context, jobId string) (commonModels.ProgressEvent, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	event, found := store.eventMap[jobId]
	return event, found
}

func (store *InMemoryProgressStore) DeleteProgress(ctx context.Context, jobId string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.eventMap, jobId)
}
