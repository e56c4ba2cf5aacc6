package store

import (
	"context"
	"encoding/json"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/data/redisStore"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// RedisResultStore keeps full extraction results. Results are the
// largest payloads we store, so they live in their own DB with a
// longer TTL than jobs.
type RedisResultStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisResultStore(ctx context.Context) *RedisResultStore {
	rs := redisStore.GetRedisStore(ctx, config.RedisResultStore)
	if rs == nil {
		return nil
	}
	return &RedisResultStore{
		store:  rs,
		logger: logger_i.NewLogger("ResultStore"),
	}
}

func (s *RedisResultStore) SaveResult(ctx context.Context, result commonModels.ExtractionResult) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", result.DocumentId)
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, result.DocumentId, data, config.RedisResultStoreTTL)
	if err == nil {
		log.Debug("Saved extraction result to Redis")
	}
	return err
}

func (s *RedisResultStore) GetResult(ctx context.Context, documentId string) (commonModels.ExtractionResult, bool) {
	var result commonModels.ExtractionResult
	val, err := s.store.Get(ctx, documentId)
	if s.store.IsNil(err) {
		return result, false
	} else if err != nil {
		return result, false
	}

	if err = json.Unmarshal([]byte(val), &result); err != nil {
		return result, false
	}
	return result, true
}

func (s *RedisResultStore) DeleteResult(ctx context.Context, documentId string) {
	if err := s.store.Del(ctx, documentId); err != nil {
		s.logger.Error("Error deleting result from Redis", "documentId", documentId)
		return
	}
	s.logger.Debug("Result deleted from Redis", "documentId:", documentId)
}

func TestResultStore(store *redisStore.Store) *RedisResultStore {
	return &RedisResultStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
