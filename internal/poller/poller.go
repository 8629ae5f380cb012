package poller

import (
	"context"
	"log/slog"
	"time"
)

type Fetcher interface {
	FetchTasks(ctx context.Context) ([]map[string]any, error)
}

type Replacer interface {
	ReplaceFromRecords(records []map[string]any)
}

// Poller keeps the cached list in step with the task API. A failed fetch
// is logged and retried on the next tick.
type Poller struct {
	fetcher  Fetcher
	store    Replacer
	interval time.Duration
	refetch  chan struct{}
}

func New(fetcher Fetcher, store Replacer, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		refetch:  make(chan struct{}, 1),
	}
}

// Refetch asks for an immediate fetch. Signals sent while one is already
// queued are dropped.
func (p *Poller) Refetch() {
	select {
	case p.refetch <- struct{}{}:
	default:
	}
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.refetch:
			slog.Debug("refetching tasks on request")
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	records, err := p.fetcher.FetchTasks(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("polling tasks", "error", err)
		}
		return
	}
	p.store.ReplaceFromRecords(records)
	slog.Debug("polled tasks", "count", len(records))
}
