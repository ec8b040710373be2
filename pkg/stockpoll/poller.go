package stockpoll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

const defaultInterval = 10 * time.Second

// Poller periodically fetches the stock summary and pushes updates to a
// callback. Refresh requests arriving while a fetch is in flight collapse
// into a single pending follow-up fetch, so a burst of user-triggered
// refreshes costs at most one extra request.
type Poller struct {
	fetcher  SummaryFetcher
	category string
	interval time.Duration
	onUpdate func(*ports.StockSummary)
	logger   zerolog.Logger

	mu           sync.Mutex
	inFlight     bool
	pendingForce bool

	force chan struct{}
}

// NewPoller builds a poller for category. onUpdate is invoked with every
// successfully fetched summary, from the Run goroutine.
func NewPoller(fetcher SummaryFetcher, category string, interval time.Duration, onUpdate func(*ports.StockSummary), logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		category: category,
		interval: interval,
		onUpdate: onUpdate,
		logger:   logger,
		force:    make(chan struct{}, 1),
	}
}

// Run polls until ctx is cancelled. One immediate fetch happens on entry so
// callers do not wait a full interval for the first update.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		case <-p.force:
			p.poll(ctx)
		}
	}
}

// Refresh requests an immediate fetch. When one is already in flight the
// request is recorded in a single pending slot; any number of concurrent
// Refresh calls produce exactly one follow-up fetch.
func (p *Poller) Refresh() {
	p.mu.Lock()
	if p.inFlight {
		p.pendingForce = true
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	select {
	case p.force <- struct{}{}:
	default:
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	p.inFlight = true
	p.mu.Unlock()

	for {
		summary, err := p.fetcher.Summary(ctx, p.category)
		if err != nil {
			p.logger.Warn().Err(err).Msg("summary poll failed")
		} else if p.onUpdate != nil {
			p.onUpdate(summary)
		}

		p.mu.Lock()
		if p.pendingForce {
			p.pendingForce = false
			p.mu.Unlock()
			continue
		}
		p.inFlight = false
		p.mu.Unlock()
		return
	}
}
