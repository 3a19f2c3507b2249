package pricing

import (
	"context"
	"log/slog"
	"time"
)

// Broadcaster resolves prices on a fixed interval and publishes each batch
// on the hub. A batch with no positive value is suppressed rather than
// broadcast.
type Broadcaster struct {
	oracle *Oracle
	hub    *Hub
	tick   time.Duration
}

func NewBroadcaster(oracle *Oracle, hub *Hub, tick time.Duration) *Broadcaster {
	return &Broadcaster{oracle: oracle, hub: hub, tick: tick}
}

// Start runs the broadcast loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(b.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				snap := b.oracle.ResolvePrices(ctx)
				if !snap.HasPositive() {
					slog.Warn("skipping price update, no valid prices received")
					continue
				}
				b.hub.Publish(snap)
			case <-ctx.Done():
				return
			}
		}
	}()
}
