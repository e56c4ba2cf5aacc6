package ocrengine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeEngine struct {
	mu         sync.Mutex
	recognized int
	inFlight   int
	maxFlight  int
	closed     bool
	delay      time.Duration
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, png []byte, pageNum int, sub func(float64)) (RecognizedPage, error) {
	f.mu.Lock()
	f.recognized++
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if sub != nil {
		sub(1)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return RecognizedPage{Text: "recognized", Confidence: 0.9}, nil
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestPool_LazyInitAndRefCount(t *testing.T) {
	inits := 0
	fake := &fakeEngine{}
	pool := NewPool(func(ctx context.Context) (Engine, error) {
		inits++
		return fake, nil
	})

	if inits != 0 {
		t.Fatal("Factory must not run before the first Acquire")
	}

	first, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	second, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Second acquire failed: %v", err)
	}
	if inits != 1 {
		t.Errorf("Factory ran %d times, want 1", inits)
	}
	if first.Name() != "fake" || second.Name() != "fake" {
		t.Error("Acquired engines must delegate to the shared instance")
	}

	pool.Release()
	if fake.closed {
		t.Error("Engine closed while a reference was still held")
	}
	pool.Release()
	if !fake.closed {
		t.Error("Engine must close when the last reference releases")
	}

	// a fresh acquire after teardown re-initializes
	if _, err := pool.Acquire(context.Background()); err != nil {
		t.Fatalf("Re-acquire failed: %v", err)
	}
	if inits != 2 {
		t.Errorf("Factory ran %d times after teardown, want 2", inits)
	}
	pool.Release()
}

func TestPool_ExtraReleaseIsNoOp(t *testing.T) {
	pool := NewPool(func(ctx context.Context) (Engine, error) {
		return &fakeEngine{}, nil
	})
	pool.Release()

	if _, err := pool.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after stray release failed: %v", err)
	}
	pool.Release()
	pool.Release()
}

func TestPool_FactoryErrorPropagates(t *testing.T) {
	wantErr := errors.New("no api key")
	pool := NewPool(func(ctx context.Context) (Engine, error) {
		return nil, wantErr
	})

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Acquire error = %v, want wrapped %v", err, wantErr)
	}
	// the failed acquire must not count as a reference
	pool.Release()
}

func TestPool_SerializesRecognition(t *testing.T) {
	fake := &fakeEngine{delay: 10 * time.Millisecond}
	pool := NewPool(func(ctx context.Context) (Engine, error) {
		return fake, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		engine, err := pool.Acquire(context.Background())
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pool.Release()
			if _, err := engine.Recognize(context.Background(), []byte("png"), 1, nil); err != nil {
				t.Errorf("Recognize failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if fake.maxFlight != 1 {
		t.Errorf("Saw %d concurrent recognitions, want 1", fake.maxFlight)
	}
	if fake.recognized != 4 {
		t.Errorf("Recognized %d pages, want 4", fake.recognized)
	}
	if !fake.closed {
		t.Error("Engine must close once all goroutines release")
	}
}

func TestEstimateConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0},
		{"clean prose", "Patient referred for cardiology follow-up.", 1},
		{"all noise", "\x00\x01\x02\x03", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimateConfidence(tt.text); got != tt.want {
				t.Errorf("estimateConfidence(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}

	noisy := estimateConfidence("Na@me#: J$a%ne")
	if noisy <= 0 || noisy >= 1 {
		t.Errorf("Mixed text should score strictly between 0 and 1, got %v", noisy)
	}
}
