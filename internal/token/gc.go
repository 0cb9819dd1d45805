package token

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunCollector purges c every interval until ctx is done.
func RunCollector(ctx context.Context, c Collector, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Purge(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to purge expired entries")
				continue
			}

			if n > 0 {
				log.Debug().Int64("removed", n).Msg("purged expired entries")
			}
		}
	}
}
