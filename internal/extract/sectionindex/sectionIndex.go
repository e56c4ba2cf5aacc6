package sectionindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/medref/ExtractionAPI/internal/adapter/utils"
	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// The section index backs the semantic fallback for field references:
// when the lexical scorer finds nothing above the noise floor, the
// field value is embedded and searched against the stored sections.

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)
var collectionName = config.SectionIndexName

type Hit struct {
	SectionType commonModels.SectionType
	Text        string
	Start       int
	End         int
	Page        int
	Score       float32
}

type Indexer interface {
	IndexSections(ctx context.Context, result commonModels.ExtractionResult, vectors [][]float32) error
	SearchSections(ctx context.Context, documentId string, vector []float32, limit int) ([]Hit, error)
	DeleteDocument(ctx context.Context, documentId string) error
}

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetSectionIndex(ctx context.Context) *ClientHolder {
	once.Do(func() {
		logger = logger_i.NewLogger("SectionIndex")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{QObj: qdrantInstance}
}

func newClient() *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	if err := createCollection(context.Background(), client, collectionName); err != nil {
		logger.Error("could not create collection: ", "collectionName", collectionName, "error:", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down section index")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
}

func createCollection(ctx context.Context, client *qdrant.Client, name string) error {
	if name == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) IndexSections(ctx context.Context, result commonModels.ExtractionResult, vectors [][]float32) error {
	if len(result.Sections) != len(vectors) {
		return fmt.Errorf("mismatch: got %d sections but %d vectors", len(result.Sections), len(vectors))
	}

	points := make([]*qdrant.PointStruct, len(result.Sections))
	for i, s := range result.Sections {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(utils.GetNewUUID()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_id":  result.DocumentId,
				"doc_name":     result.DocName,
				"section_type": string(s.Type),
				"text":         s.Text,
				"start_offset": s.StartOffset,
				"end_offset":   s.EndOffset,
				"page":         pageFor(s.StartOffset, result.PageOffsets),
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) SearchSections(ctx context.Context, documentId string, vector []float32, limit int) ([]Hit, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentId),
			},
		},
	})
	if err != nil {
		loggr.Error("Error querying section index: ", "error:", err)
		return nil, err
	}

	var hits []Hit
	for _, point := range result {
		if point.Score < config.SectionSimilarityCutoff {
			continue
		}
		hits = append(hits, Hit{
			SectionType: commonModels.SectionType(point.Payload["section_type"].GetStringValue()),
			Text:        point.Payload["text"].GetStringValue(),
			Start:       int(point.Payload["start_offset"].GetIntegerValue()),
			End:         int(point.Payload["end_offset"].GetIntegerValue()),
			Page:        int(point.Payload["page"].GetIntegerValue()),
			Score:       point.Score,
		})
	}
	return hits, nil
}

func (db *ClientHolder) DeleteDocument(ctx context.Context, documentId string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentId),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete failed: %w", err)
	}
	return nil
}

func pageFor(offset int, pageOffsets []int) int {
	page := 1
	for i, start := range pageOffsets {
		if offset >= start {
			page = i + 1
		}
	}
	return page
}
