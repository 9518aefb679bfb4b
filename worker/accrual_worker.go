// Package worker runs background jobs that are independent of the chat client.
package worker

import (
	"context"
	"time"

	"wagerbot/models"
	"wagerbot/service"

	log "github.com/sirupsen/logrus"
)

// AccrualRecorder receives metrics for finished accrual runs
type AccrualRecorder interface {
	AccrualRun(ctx context.Context, run *models.AccrualRun, err error)
}

// AccrualWorker runs the interest and penalty passes on a fixed interval
type AccrualWorker struct {
	accrual  service.AccrualService
	interval time.Duration
	recorder AccrualRecorder
	now      func() time.Time
}

// NewAccrualWorker creates a worker. recorder may be nil.
func NewAccrualWorker(accrual service.AccrualService, interval time.Duration, recorder AccrualRecorder) *AccrualWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AccrualWorker{
		accrual:  accrual,
		interval: interval,
		recorder: recorder,
		now:      time.Now,
	}
}

// Start runs one pass immediately and then every interval. Returns a
// cleanup function that stops the worker and waits for a running pass.
func (w *AccrualWorker) Start(ctx context.Context) func() {
	ticker := time.NewTicker(w.interval)
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()
		log.WithField("interval", w.interval).Info("Accrual worker started")

		w.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info("Accrual worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Accrual worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
		<-done
	}
}

// RunOnce executes a single accrual pass
func (w *AccrualWorker) RunOnce(ctx context.Context) {
	run, err := w.accrual.Run(ctx, w.now())
	if w.recorder != nil {
		w.recorder.AccrualRun(ctx, run, err)
	}
	if run == nil {
		log.WithError(err).Error("Accrual run failed")
		return
	}

	fields := log.Fields{
		"interestGranted":  run.InterestGranted,
		"depositsCredited": run.DepositsCredited,
		"penaltiesApplied": run.PenaltiesApplied,
		"loansCollected":   run.LoansCollected,
		"failures":         run.Failures,
		"duration":         run.FinishedAt.Sub(run.StartedAt),
	}
	if err != nil {
		log.WithFields(fields).WithError(err).Warn("Accrual run finished with errors")
		return
	}
	log.WithFields(fields).Info("Accrual run finished")
}
