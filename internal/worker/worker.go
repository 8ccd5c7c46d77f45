package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"statmatch/internal/config"
	"statmatch/internal/logging"
	"statmatch/internal/notifications"
	"statmatch/internal/queue"
	"statmatch/internal/services"
)

// Worker polls the inbound queue and hands each message to the processor.
// At most one message is processed at a time.
type Worker struct {
	cfg       *config.Config
	queue     *queue.Store
	processor *Processor
	notifier  notifications.Service
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a worker around an already-opened queue store and processor.
func New(cfg *config.Config, queueStore *queue.Store, processor *Processor, notifier notifications.Service, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Worker{
		cfg:       cfg,
		queue:     queueStore,
		processor: processor,
		notifier:  notifier,
		logger:    logger.With(logging.String(logging.FieldComponent, "worker")),
	}
}

// Start begins background processing.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("worker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	pollInterval := time.Duration(w.cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.reclaimStale(ctx)

		msg, err := w.queue.Next(ctx, w.cfg.Queue.InboundQueue)
		if err != nil {
			w.logger.Error("failed to fetch next message", logging.Error(err))
			if !w.sleep(ctx, time.Duration(w.cfg.Workflow.ErrorRetryInterval)*time.Second) {
				return
			}
			continue
		}
		if msg == nil {
			if !w.sleep(ctx, pollInterval) {
				return
			}
			continue
		}

		w.handle(ctx, msg)
	}
}

func (w *Worker) handle(ctx context.Context, msg *queue.Message) {
	msgCtx := services.WithMessageID(ctx, msg.ID)
	logger := logging.WithContext(msgCtx, w.logger)

	timeout := time.Duration(w.cfg.Workflow.ProcessTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	processCtx, cancel := context.WithTimeout(msgCtx, timeout)
	defer cancel()

	err := w.processor.Process(processCtx, msg.Body)
	if err == nil {
		if ackErr := w.queue.Ack(ctx, msg.ID); ackErr != nil {
			logger.Error("failed to acknowledge message", logging.Error(ackErr))
		}
		return
	}

	if ctx.Err() != nil {
		// Shutdown interrupted processing, not a batch failure. Put the
		// message back so the next run picks it up.
		logger.Info("releasing message on shutdown")
		releaseCtx, cancelRelease := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelRelease()
		if releaseErr := w.queue.Release(releaseCtx, msg.ID, "worker shutdown"); releaseErr != nil {
			logger.Error("failed to release message", logging.Error(releaseErr))
		}
		return
	}

	if errors.Is(processCtx.Err(), context.DeadlineExceeded) {
		err = services.Wrap(services.ErrTimeout, "worker", "process",
			"processing deadline exceeded", err)
	}

	if services.Fatal(err) {
		logger.Error("discarding message after permanent failure", logging.Error(err))
		if notifyErr := w.notifier.NotifyError(ctx, err, "batch processing"); notifyErr != nil {
			logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		if discardErr := w.queue.Discard(ctx, msg.ID, err.Error()); discardErr != nil {
			logger.Error("failed to discard message", logging.Error(discardErr))
		}
		return
	}

	logger.Warn("releasing message after transient failure", logging.Error(err))
	if releaseErr := w.queue.Release(ctx, msg.ID, err.Error()); releaseErr != nil {
		logger.Error("failed to release message", logging.Error(releaseErr))
	}
	w.sleep(ctx, time.Duration(w.cfg.Workflow.ErrorRetryInterval)*time.Second)
}

func (w *Worker) reclaimStale(ctx context.Context) {
	reclaimAfter := time.Duration(w.cfg.Workflow.ReclaimAfter) * time.Second
	if reclaimAfter <= 0 {
		return
	}
	reclaimed, err := w.queue.ReclaimStale(ctx, w.cfg.Queue.InboundQueue, reclaimAfter)
	if err != nil {
		w.logger.Warn("reclaim stale messages failed", logging.Error(err))
		return
	}
	if reclaimed > 0 {
		w.logger.Warn("reclaimed stalled messages", logging.Int64("count", reclaimed))
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
