package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lacquer/internal/badge"
	"lacquer/internal/config"
	"lacquer/internal/jobs"
	"lacquer/internal/logging"
	"lacquer/internal/notifications"
)

// ItemProcessor is the slice of the pipeline the scheduler drives.
type ItemProcessor interface {
	ProcessItem(ctx context.Context, itemID string, types []badge.Type) (badge.CompositeResult, error)
}

// Scheduler claims queued jobs and processes their items through a bounded
// pool. One Scheduler runs per daemon; construct it explicitly and manage
// its lifecycle with Start and Stop.
type Scheduler struct {
	cfg          *config.Config
	store        *jobs.Store
	processor    ItemProcessor
	notifier     notifications.Service
	logger       *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a scheduler.
func New(cfg *config.Config, store *jobs.Store, processor ItemProcessor, notifier notifications.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		store:        store,
		processor:    processor,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "scheduler"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
	}
}

// Start begins background job processing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	go s.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight items.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

// Running reports whether the scheduler loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := s.store.ClaimNextQueued(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("failed to claim next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "job_claim_failed"),
				logging.String(logging.FieldErrorHint, "check job database access"),
			)
			s.sleep(ctx, time.Duration(s.cfg.Workflow.ErrorRetryInterval)*time.Second)
			continue
		}
		if job == nil {
			s.sleep(ctx, s.pollInterval)
			continue
		}

		s.runJob(ctx, job)
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// runJob processes every item of one claimed job and finalizes it. Items run
// on a bounded pool; cancellation is observed before each item starts, so
// in-flight items always report before the job goes terminal.
func (s *Scheduler) runJob(ctx context.Context, job *jobs.Job) {
	start := time.Now()
	logger := s.logger.With(logging.String(logging.FieldJobID, job.ID))
	logger.Info("job started",
		logging.Int("total", job.Total),
		logging.String("badge_types", fmt.Sprintf("%v", job.BadgeTypes)),
	)
	s.notify(ctx, logger, func(nctx context.Context) error {
		return s.notifier.NotifyJobStarted(nctx, job.ID, job.Total)
	})

	types := parseBadgeTypes(job.BadgeTypes)

	width := s.cfg.Workflow.WorkerCount
	if width > len(job.ItemIDs) {
		width = len(job.ItemIDs)
	}
	if width < 1 {
		width = 1
	}

	items := make(chan string)
	var wg sync.WaitGroup
	var storeDown atomic.Bool
	var cancelled atomic.Bool
	var shutdown atomic.Bool

	for i := 0; i < width; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for itemID := range items {
				// Cancellation and shutdown are observed at item-start
				// boundaries; items already processing run to completion.
				if ctx.Err() != nil {
					shutdown.Store(true)
					continue
				}
				if cancelled.Load() {
					continue
				}
				if flagged, err := s.store.CancelRequested(ctx, job.ID); err == nil && flagged {
					cancelled.Store(true)
					logger.Info("cancellation observed, skipping remaining items")
					continue
				}

				result := s.processWithRetry(ctx, itemID, types)
				result.JobID = job.ID
				if err := s.recordResult(ctx, result); err != nil {
					// Leave the job running; ResetStuckRunning reconciles
					// it on the next daemon start.
					logger.Error("failed to record item result",
						logging.String(logging.FieldItemID, itemID),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check job database access"),
					)
					storeDown.Store(true)
					continue
				}
				s.reportProgress(ctx, logger, job.ID)
			}
		}()
	}

dispatch:
	for _, itemID := range job.ItemIDs {
		select {
		case items <- itemID:
		case <-ctx.Done():
			shutdown.Store(true)
			break dispatch
		}
	}
	close(items)
	wg.Wait()

	if storeDown.Load() {
		logger.Warn("job left running after store errors; will be requeued on restart")
		return
	}
	if shutdown.Load() {
		// Daemon shutdown mid-job: leave it running for restart recovery.
		logger.Info("shutdown before job finished; leaving job for restart recovery")
		return
	}

	final, err := s.store.FinalizeJob(ctx, job.ID)
	if err != nil {
		logger.Error("failed to finalize job", logging.Error(err))
		return
	}

	elapsed := time.Since(start)
	logger.Info("job finished",
		logging.String("status", string(final.Status)),
		logging.Int("completed", final.Completed),
		logging.Int("failed", final.Failed),
		logging.Duration("elapsed", elapsed),
	)
	switch final.Status {
	case jobs.StatusCancelled:
		s.notify(ctx, logger, func(nctx context.Context) error {
			return s.notifier.NotifyJobCancelled(nctx, final.ID, final.Completed, final.Total)
		})
	default:
		s.notify(ctx, logger, func(nctx context.Context) error {
			return s.notifier.NotifyJobCompleted(nctx, final.ID, final.Completed, final.Failed, elapsed)
		})
	}
}

const (
	recordRetryAttempts = 3
	recordRetryBackoff  = 500 * time.Millisecond
)

// recordResult persists one item outcome, retrying transient store errors
// before the job is abandoned for restart recovery.
func (s *Scheduler) recordResult(ctx context.Context, result jobs.ItemResult) error {
	var err error
	for attempt := 1; attempt <= recordRetryAttempts; attempt++ {
		err = s.store.RecordItemResult(ctx, result)
		if err == nil || ctx.Err() != nil || attempt == recordRetryAttempts {
			return err
		}
		s.logger.Warn("recording item result failed, retrying",
			logging.String(logging.FieldItemID, result.ItemID),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		s.sleep(ctx, recordRetryBackoff)
	}
	return err
}

// processWithRetry runs one item with bounded retries and converts panics
// into a failed result for that item only.
func (s *Scheduler) processWithRetry(ctx context.Context, itemID string, types []badge.Type) jobs.ItemResult {
	attempts := s.cfg.Workflow.ItemRetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Duration(s.cfg.Workflow.ItemRetryBackoff) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := s.processOnce(ctx, itemID, types)
		if err == nil {
			return jobs.ItemResult{
				ItemID:        itemID,
				Status:        jobs.ItemCompleted,
				Attempts:      attempt,
				AppliedBadges: typeStrings(result.Applied),
				FailedBadges:  typeStrings(result.Failed),
				OutputPath:    result.OutputPath,
				Elapsed:       result.Elapsed,
			}
		}
		lastErr = err
		if ctx.Err() != nil || attempt == attempts {
			break
		}
		s.logger.Warn("item attempt failed, retrying",
			logging.String(logging.FieldItemID, itemID),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
		s.sleep(ctx, backoff)
		backoff *= 2
	}

	return jobs.ItemResult{
		ItemID:       itemID,
		Status:       jobs.ItemFailed,
		Attempts:     attempts,
		ErrorMessage: lastErr.Error(),
	}
}

func (s *Scheduler) processOnce(ctx context.Context, itemID string, types []badge.Type) (result badge.CompositeResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing item %s: %v", itemID, r)
		}
	}()
	return s.processor.ProcessItem(ctx, itemID, types)
}

// reportProgress sends a best-effort progress notification; a failure is
// logged and never affects job state.
func (s *Scheduler) reportProgress(ctx context.Context, logger *slog.Logger, jobID string) {
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		logger.Warn("progress lookup failed", logging.Error(err))
		return
	}
	s.notify(ctx, logger, func(nctx context.Context) error {
		return s.notifier.NotifyJobProgress(nctx, job.ID, job.Completed, job.Failed, job.Total)
	})
}

func (s *Scheduler) notify(ctx context.Context, logger *slog.Logger, send func(context.Context) error) {
	if s.notifier == nil {
		return
	}
	nctx := ctx
	if nctx.Err() != nil {
		nctx = context.Background()
	}
	if err := send(nctx); err != nil {
		logger.Warn("notification failed", logging.Error(err))
	}
}

func parseBadgeTypes(values []string) []badge.Type {
	types := make([]badge.Type, 0, len(values))
	for _, value := range values {
		if parsed, ok := badge.ParseType(value); ok {
			types = append(types, parsed)
		}
	}
	return types
}

func typeStrings(types []badge.Type) []string {
	if len(types) == 0 {
		return nil
	}
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	return values
}
