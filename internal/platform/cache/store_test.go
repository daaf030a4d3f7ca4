package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoadSharesConcurrentMisses(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 32, nil
	}

	const workers = 16
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.GetOrLoad(context.Background(), "team_values:lg-1", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v.(int) != 32 {
				errCh <- errors.New("unexpected value")
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	now := time.Date(2025, 9, 7, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "season:current", int64(7))
	if _, ok := store.Get(context.Background(), "season:current"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := store.Get(context.Background(), "season:current"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry must be evicted on read")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(0)
	store.Set(ctx, "team_values:lg-1", 1)
	store.Set(ctx, "team_values:lg-2", 2)
	store.Set(ctx, "teams:all", 3)

	store.DeletePrefix(ctx, "team_values:")

	if _, ok := store.Get(ctx, "team_values:lg-1"); ok {
		t.Fatalf("prefix entry must be gone")
	}
	if _, ok := store.Get(ctx, "teams:all"); !ok {
		t.Fatalf("unrelated entry must survive")
	}
}

func TestLoad_TypedAndErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(time.Minute)

	got, err := Load(ctx, store, "k", func(context.Context) ([]string, error) {
		return []string{"KC", "BUF"}, nil
	})
	if err != nil || len(got) != 2 {
		t.Fatalf("Load = %v, %v", got, err)
	}

	if _, err := Load(ctx, store, "k", func(context.Context) (int, error) { return 0, nil }); err == nil {
		t.Fatalf("expected type mismatch error")
	}

	errBoom := errors.New("boom")
	if _, err := Load(ctx, store, "other", func(context.Context) (int, error) { return 0, errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	if _, ok := store.Get(ctx, "other"); ok {
		t.Fatalf("failed loads must not be cached")
	}
}
