package loader

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces consecutive device calls during a load so the device gets time
// to process each one. It is never used on the playback path.
type pacer struct {
	lim *rate.Limiter
}

func newPacer(delay time.Duration) *pacer {
	if delay <= 0 {
		return &pacer{lim: rate.NewLimiter(rate.Inf, 0)}
	}
	return &pacer{lim: rate.NewLimiter(rate.Every(delay), 1)}
}

// Pause blocks until the next device call may be issued.
func (p *pacer) Pause(ctx context.Context) error {
	return p.lim.Wait(ctx)
}
