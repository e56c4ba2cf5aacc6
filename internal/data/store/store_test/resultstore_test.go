package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/data/redisStore"
	"github.com/medref/ExtractionAPI/internal/data/store"
	"github.com/medref/ExtractionAPI/internal/domain/commonModels"
)

func TestRedisResultStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	resultStore := store.TestResultStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	confidence := 0.87
	result := commonModels.ExtractionResult{
		DocumentId:  "doc-1",
		DocName:     "referral.pdf",
		Text:        "DIAGNOSIS\nEssential hypertension.",
		IsOcr:       true,
		Pages:       3,
		PageOffsets: []int{0, 12, 24},
		Confidence:  &confidence,
		Sections: []commonModels.Section{
			{Type: commonModels.SectionDiagnosis, Text: "DIAGNOSIS\nEssential hypertension.", StartOffset: 0, EndOffset: 33},
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := resultStore.SaveResult(ctx, result); err != nil {
			t.Fatalf("SaveResult failed: %v", err)
		}

		got, found := resultStore.GetResult(ctx, "doc-1")
		if !found {
			t.Fatal("Result was saved but not found in Redis")
		}
		if got.Text != result.Text {
			t.Errorf("Text got %q, want %q", got.Text, result.Text)
		}
		if !got.IsOcr || got.Pages != 3 {
			t.Errorf("Flags lost in roundtrip: %+v", got)
		}
		if got.Confidence == nil || *got.Confidence != confidence {
			t.Errorf("Confidence lost in roundtrip: %v", got.Confidence)
		}
		if len(got.Sections) != 1 || got.Sections[0].Type != commonModels.SectionDiagnosis {
			t.Errorf("Sections lost in roundtrip: %+v", got.Sections)
		}
	})

	t.Run("Fields Cache Survives Resave", func(t *testing.T) {
		result.Fields = []commonModels.ExtractedField{{Number: 11, Name: "Diagnosis", Value: "Essential hypertension"}}
		if err := resultStore.SaveResult(ctx, result); err != nil {
			t.Fatalf("Resave failed: %v", err)
		}

		got, _ := resultStore.GetResult(ctx, "doc-1")
		if len(got.Fields) != 1 || got.Fields[0].Value != "Essential hypertension" {
			t.Errorf("Cached fields lost: %+v", got.Fields)
		}
	})

	t.Run("Delete Result", func(t *testing.T) {
		resultStore.DeleteResult(ctx, "doc-1")
		if _, found := resultStore.GetResult(ctx, "doc-1"); found {
			t.Error("Result still present after delete")
		}
	})
}

func TestRedisProgressStore_LatestWins(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	progressStore := store.TestProgressStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	first := commonModels.ProgressEvent{Status: "OcrExtract", Progress: 0.35, Page: 1, TotalPages: 4}
	second := commonModels.ProgressEvent{Status: "OcrExtract", Progress: 0.65, Page: 3, TotalPages: 4}

	if err := progressStore.SaveProgress(ctx, "job-1", first); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}
	if err := progressStore.SaveProgress(ctx, "job-1", second); err != nil {
		t.Fatalf("Second SaveProgress failed: %v", err)
	}

	got, found := progressStore.GetProgress(ctx, "job-1")
	if !found {
		t.Fatal("Progress was saved but not found")
	}
	if got.Progress != 0.65 || got.Page != 3 {
		t.Errorf("Expected the newest event to win, got %+v", got)
	}

	if _, found := progressStore.GetProgress(ctx, "job-unknown"); found {
		t.Error("Expected found=false for a job with no progress")
	}
}
