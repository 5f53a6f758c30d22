package reconcile

// concurrent.go — worker pool para liquidar legs en paralelo.
//
// No hace falta particionar ni coordinar: cada write de settlement es
// idempotente por fingerprint, así que dos workers sobre la misma leg
// terminan con uno insertando y el otro observando skipped_idempotent.

import (
	"context"
	"runtime"
	"sync"

	"github.com/bockeljd/basement-bets-sub000/internal/domain"
)

// settleConcurrent procesa las legs con un pool de workers y acumula los
// deltas en un solo reporte.
func (c *Cycle) settleConcurrent(ctx context.Context, legs []domain.Leg, results map[string]domain.GameResult) domain.ReconcileReport {
	workers := c.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workCh := make(chan domain.Leg, len(legs))
	deltaCh := make(chan domain.ReconcileReport, len(legs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for leg := range workCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				deltaCh <- c.settleLeg(ctx, leg, results)
			}
		}()
	}

	for _, leg := range legs {
		workCh <- leg
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(deltaCh)
	}()

	var report domain.ReconcileReport
	for delta := range deltaCh {
		report.Merge(delta)
	}
	return report
}
