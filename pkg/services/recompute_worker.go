package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RecomputeWorker periodically sweeps the whole directory so time-derived
// score fields (days of silence, dormancy) stay current even when no new
// evidence arrives.
type RecomputeWorker struct {
	scoreService ScoreService
	interval     time.Duration
	logger       *zap.Logger
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewRecomputeWorker creates a sweep worker. An interval of zero disables it;
// Start becomes a no-op.
func NewRecomputeWorker(scoreService ScoreService, interval time.Duration, logger *zap.Logger) *RecomputeWorker {
	return &RecomputeWorker{
		scoreService: scoreService,
		interval:     interval,
		logger:       logger,
	}
}

// Start launches the sweep loop in a goroutine. The first sweep runs after
// one full interval, not at startup; scores are already recomputed on every
// verification, so a boot-time sweep would only add load.
func (w *RecomputeWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("score sweep disabled")
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.logger.Info("score sweep worker started", zap.Duration("interval", w.interval))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := w.scoreService.RecalculateAll(ctx); err != nil {
					w.logger.Error("score sweep aborted", zap.Error(err))
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for any in-flight sweep to finish.
func (w *RecomputeWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

// State reports the sweep loop for health checks: "disabled", "running", or
// "stopped".
func (w *RecomputeWorker) State() string {
	if w.interval <= 0 {
		return "disabled"
	}
	if w.done == nil {
		return "stopped"
	}
	select {
	case <-w.done:
		return "stopped"
	default:
		return "running"
	}
}
