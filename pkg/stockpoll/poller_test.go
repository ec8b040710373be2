package stockpoll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

// blockingFetcher serves one fetch at a time and lets the test control when
// each fetch completes.
type blockingFetcher struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{release: make(chan struct{})}
}

func (f *blockingFetcher) Summary(ctx context.Context, category string) (*ports.StockSummary, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &ports.StockSummary{CurrentStock: 100}, nil
}

func (f *blockingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitForCalls(t *testing.T, f *blockingFetcher, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for f.callCount() < want {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d calls, have %d", want, f.callCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPoller_RefreshWhileIdleTriggersFetch(t *testing.T) {
	fetcher := newBlockingFetcher()
	var updates int
	var mu sync.Mutex
	p := NewPoller(fetcher, "", time.Hour, func(*ports.StockSummary) {
		mu.Lock()
		updates++
		mu.Unlock()
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	// The startup fetch.
	waitForCalls(t, fetcher, 1)
	fetcher.release <- struct{}{}

	// An explicit refresh while idle.
	p.Refresh()
	waitForCalls(t, fetcher, 2)
	fetcher.release <- struct{}{}

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if updates != 2 {
		t.Fatalf("expected 2 updates, got %d", updates)
	}
}

func TestPoller_ConcurrentRefreshesCoalesce(t *testing.T) {
	fetcher := newBlockingFetcher()
	p := NewPoller(fetcher, "", time.Hour, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	// While the startup fetch is blocked, pile on refresh requests.
	waitForCalls(t, fetcher, 1)
	for i := 0; i < 5; i++ {
		p.Refresh()
	}

	// Completing the blocked fetch must trigger exactly one follow-up.
	fetcher.release <- struct{}{}
	waitForCalls(t, fetcher, 2)
	fetcher.release <- struct{}{}

	// Give any extra (incorrect) fetches a chance to appear.
	time.Sleep(50 * time.Millisecond)
	if got := fetcher.callCount(); got != 2 {
		t.Fatalf("expected 5 refreshes to coalesce into 1 follow-up (2 fetches total), got %d", got)
	}

	cancel()
	<-done
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	fetcher := newBlockingFetcher()
	p := NewPoller(fetcher, "", time.Hour, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	waitForCalls(t, fetcher, 1)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
