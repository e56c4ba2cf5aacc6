package store

import (
	"context"
	"encoding/json"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/data/redisStore"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// RedisProgressStore keeps only the latest event per job; each save
// overwrites the previous one. Status polling reads it alongside the
// job record.
type RedisProgressStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisProgressStore(ctx context.Context) *RedisProgressStore {
	rs := redisStore.GetRedisStore(ctx, config.RedisProgressStore)
	if rs == nil {
		return nil
	}
	return &RedisProgressStore{
		store:  rs,
		logger: logger_i.NewLogger("ProgressStore"),
	}
}

func (s *RedisProgressStore) SaveProgress(ctx context.Context, jobId string, event commonModels.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, jobId, data, config.RedisProgressStoreTTL)
}

func (s *RedisProgressStore) GetProgress(ctx context.Context, jobId string) (commonModels.ProgressEvent, bool) {
	var event commonModels.ProgressEvent
	val, err := s.store.Get(ctx, jobId)
	if s.store.IsNil(err) {
		return event, false
	} else if err != nil {
		return event, false
	}

	if err = json.Unmarshal([]byte(val), &event); err != nil {
		return event, false
	}
	return event, true
}

func TestProgressStore(store *redisStore.Store) *RedisProgressStore {
	return &RedisProgressStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
