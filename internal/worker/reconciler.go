package worker

import (
	"context"
	"sync"
	"time"

	"github.com/phuslu/log"
)

// StaleDocumentStore marks documents stuck in Processing as Failed.
type StaleDocumentStore interface {
	MarkStaleProcessingFailed(cutoff time.Time) (int64, error)
}

// Reconciler periodically sweeps documents that never left Processing,
// typically because the process died between row creation and
// finalize. Without it such documents would look in-progress forever.
type Reconciler struct {
	store      StaleDocumentStore
	interval   time.Duration
	staleAfter time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReconciler(store StaleDocumentStore, interval, staleAfter time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	return &Reconciler{
		store:      store,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				r.sweep()
			}
		}
	}()
}

func (r *Reconciler) sweep() {
	cutoff := time.Now().Add(-r.staleAfter)
	count, err := r.store.MarkStaleProcessingFailed(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("stale document sweep failed")
		return
	}
	if count > 0 {
		log.Warn().Int64("documents", count).Msg("marked stale processing documents as failed")
	}
}

func (r *Reconciler) Close() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}
