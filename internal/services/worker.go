package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"astramatch/resume-matcher/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueRun(runID uuid.UUID)
}

type worker struct {
	runRepo     repositories.RunRepository
	matcher     MatcherService
	runQueue    chan uuid.UUID
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	log         *zap.Logger
}

func NewWorker(
	runRepo repositories.RunRepository,
	matcher MatcherService,
	concurrency int,
	log *zap.Logger,
) Worker {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &worker{
		runRepo:     runRepo,
		matcher:     matcher,
		runQueue:    make(chan uuid.UUID, 100),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
		log:         log.With(zap.String("service", "worker")),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processRuns(ctx, i+1)
	}

	// Requeue runs that were accepted before a restart.
	w.wg.Add(1)
	go w.pollPendingRuns(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.log.Info("stopping worker")
	close(w.stopChan)
	w.wg.Wait()
	w.log.Info("worker stopped")
}

// EnqueueRun implements Worker.
func (w *worker) EnqueueRun(runID uuid.UUID) {
	select {
	case w.runQueue <- runID:
		w.log.Debug("run enqueued", zap.String("run_id", runID.String()))
	case <-w.stopChan:
		w.log.Warn("worker stopped, cannot enqueue run", zap.String("run_id", runID.String()))
	}
}

func (w *worker) processRuns(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker_id", workerID))

	for {
		select {
		case <-w.stopChan:
			log.Debug("worker goroutine stopped")
			return
		case runID := <-w.runQueue:
			log.Info("processing run", zap.String("run_id", runID.String()))
			if err := w.matcher.ProcessRun(ctx, runID); err != nil {
				log.Error("run failed", zap.String("run_id", runID.String()), zap.Error(err))
			} else {
				log.Info("run completed", zap.String("run_id", runID.String()))
			}
		}
	}
}

func (w *worker) pollPendingRuns(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pending, err := w.runRepo.FindPendingRuns(10)
			if err != nil {
				w.log.Warn("failed to fetch pending runs", zap.Error(err))
				continue
			}

			for _, run := range pending {
				w.EnqueueRun(run.ID)
			}
		}
	}
}
