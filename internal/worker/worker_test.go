package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/castpoll/backend/internal/polls"
)

type fakeExpiryStore struct {
	ids []uuid.UUID
	err error
}

func (f *fakeExpiryStore) ListExpiredBetween(context.Context, time.Time, time.Time) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type recordingViews struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingViews) Invalidate(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingViews) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestSweepInvalidatesExpiredPollViews(t *testing.T) {
	id := uuid.New()
	views := &recordingViews{}
	s := NewSweeper(&fakeExpiryStore{ids: []uuid.UUID{id}}, views, nil, time.Minute)

	s.sweep(context.Background(), time.Now().Add(-time.Minute), time.Now())

	want := append(polls.ViewPaths(id), polls.ListingPath)
	got := views.snapshot()
	if len(got) != len(want) {
		t.Fatalf("invalidated %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("invalidated %v, want %v", got, want)
		}
	}
}

func TestSweepNothingExpired(t *testing.T) {
	views := &recordingViews{}
	s := NewSweeper(&fakeExpiryStore{}, views, nil, time.Minute)

	s.sweep(context.Background(), time.Now().Add(-time.Minute), time.Now())
	if got := views.snapshot(); len(got) != 0 {
		t.Errorf("invalidated %v, want nothing", got)
	}
}

func TestSweepStoreFailureIsNonFatal(t *testing.T) {
	views := &recordingViews{}
	s := NewSweeper(&fakeExpiryStore{err: errors.New("db down")}, views, nil, time.Minute)

	s.sweep(context.Background(), time.Now().Add(-time.Minute), time.Now())
	if got := views.snapshot(); len(got) != 0 {
		t.Errorf("invalidated %v after a store error, want nothing", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(&fakeExpiryStore{}, &recordingViews{}, nil, time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
