package services

import (
	"context"
	"log/slog"
	"time"
)

// StartQueueSweep runs a background goroutine that periodically moves
// stale OPEN incidences into the review queue. Close done to stop it.
func StartQueueSweep(svc *IncidenceService, interval, age time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := svc.EnqueueOpen(context.Background(), age)
				if err != nil {
					slog.Error("review queue sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("review queue sweep completed", "enqueued", n)
				}
			case <-done:
				return
			}
		}
	}()
}
