package source

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces yielded records and sub-queries. The first call of each
// kind never waits.
type Pacer struct {
	item  *rate.Limiter
	batch *rate.Limiter
}

// NewPacer returns a Pacer for one Scrape call.
func NewPacer(p Pacing) *Pacer {
	return &Pacer{
		item:  newLimiter(p.ItemDelay),
		batch: newLimiter(p.BatchDelay),
	}
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// WaitItem blocks until the next record may be yielded.
func (p *Pacer) WaitItem(ctx context.Context) error {
	return p.item.Wait(ctx)
}

// WaitBatch blocks until the next sub-query may start.
func (p *Pacer) WaitBatch(ctx context.Context) error {
	return p.batch.Wait(ctx)
}
