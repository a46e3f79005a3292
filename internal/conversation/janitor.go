package conversation

import (
	"context"
	"time"
)

// DefaultPruneInterval is how often RunJanitor prunes idle threads.
const DefaultPruneInterval = time.Hour

// RunJanitor prunes idle threads once immediately and then every interval
// until ctx is done. Prune failures are logged and retried on the next tick.
func (e *Engine) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := e.Prune(ctx); err != nil && ctx.Err() == nil {
			e.log.Error().Err(err).Msg("thread pruning failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
