package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/ats-matcher/internal/repositories"
)

const (
	jobQueueSize = 100
	pollBatch    = 10

	staleAnalysisMessage = "analysis abandoned: still processing after worker timeout"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(id uuid.UUID) bool
}

type worker struct {
	repo         repositories.AnalysisRepository
	analyses     AnalysisService
	jobQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	staleAfter   time.Duration
	wg           sync.WaitGroup
	stopOnce     sync.Once
	stopChan     chan struct{}
	log          *zap.Logger
}

func NewWorker(
	repo repositories.AnalysisRepository,
	analyses AnalysisService,
	concurrency int,
	pollInterval time.Duration,
	staleAfter time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	return &worker{
		repo:         repo,
		analyses:     analyses,
		jobQueue:     make(chan uuid.UUID, jobQueueSize),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		staleAfter:   staleAfter,
		stopChan:     make(chan struct{}),
		log:          log,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	// Rows left in processing by a previous run will never be claimed again.
	w.failStale()

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollQueued(ctx)

	w.log.Info("worker started", zap.Int("concurrency", w.concurrency), zap.Duration("poll_interval", w.pollInterval))
}

// Stop implements Worker. It waits for in-flight analyses to finish.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	w.log.Info("worker stopped")
}

// EnqueueJob implements Worker. A full queue is not an error: the row stays
// queued and the poller picks it up later.
func (w *worker) EnqueueJob(id uuid.UUID) bool {
	select {
	case <-w.stopChan:
		w.log.Warn("worker stopped, job left queued", zap.String("id", id.String()))
		return false
	default:
	}

	select {
	case w.jobQueue <- id:
		w.log.Debug("job enqueued", zap.String("id", id.String()))
		return true
	default:
		w.log.Warn("job queue full, deferring to poller", zap.String("id", id.String()))
		return false
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case id := <-w.jobQueue:
			w.log.Debug("processing job", zap.Int("worker", workerID), zap.String("id", id.String()))
			if err := w.analyses.Process(ctx, id); err != nil {
				w.log.Error("job failed", zap.Int("worker", workerID), zap.String("id", id.String()), zap.Error(err))
			}
		}
	}
}

func (w *worker) pollQueued(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.failStale()

			queued, err := w.repo.FindQueued(pollBatch)
			if err != nil {
				w.log.Warn("failed to fetch queued analyses", zap.Error(err))
				continue
			}

			for _, analysis := range queued {
				w.EnqueueJob(analysis.ID)
			}
		}
	}
}

// failStale fails analyses that have been processing longer than staleAfter.
// A zero staleAfter disables the sweep.
func (w *worker) failStale() {
	if w.staleAfter <= 0 {
		return
	}

	n, err := w.repo.FailStale(time.Now().Add(-w.staleAfter), staleAnalysisMessage)
	if err != nil {
		w.log.Warn("failed to sweep stale analyses", zap.Error(err))
		return
	}
	if n > 0 {
		w.log.Warn("stale analyses marked failed", zap.Int64("count", n), zap.Duration("stale_after", w.staleAfter))
	}
}
