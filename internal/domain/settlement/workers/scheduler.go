package workers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/domain/settlement/deps"
)

// SchedulerWorker runs a settlement cycle on a fixed interval
type SchedulerWorker struct {
	uc       deps.SettlementUseCase
	interval time.Duration
	logger   zerolog.Logger

	done   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSchedulerWorker(uc deps.SettlementUseCase, cfg *config.SettlementConfig, logger zerolog.Logger) *SchedulerWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerWorker{
		uc:       uc,
		interval: cfg.Interval,
		logger:   logger,
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *SchedulerWorker) Start() {
	w.logger.Info().Dur("interval", w.interval).Msg("Starting settlement scheduler")

	w.wg.Add(1)
	go w.run()
}

func (w *SchedulerWorker) Stop() {
	w.logger.Info().Msg("Stopping settlement scheduler")

	w.cancel()
	close(w.done)
	w.wg.Wait()

	w.logger.Info().Msg("Settlement scheduler stopped")
}

func (w *SchedulerWorker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single settlement cycle
func (w *SchedulerWorker) RunOnce() {
	report, err := w.uc.RunCycle(w.ctx)
	if err != nil {
		switch {
		case w.ctx.Err() != nil:
			w.logger.Warn().Err(err).Msg("Settlement cycle cancelled")
		case domain.KindOf(err) == domain.KindState:
			w.logger.Info().Err(err).Msg("Settlement cycle skipped")
		default:
			w.logger.Error().Err(err).Msg("Settlement cycle failed")
		}
		if report == nil {
			return
		}
	}

	w.logger.Debug().
		Str("batch_id", report.BatchID.String()).
		Int("due", report.Due).
		Int("settled", report.Settled).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("Settlement cycle completed")
}
