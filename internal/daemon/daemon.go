package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"statmatch/internal/config"
	"statmatch/internal/logging"
	"statmatch/internal/notifications"
	"statmatch/internal/queue"
	"statmatch/internal/store"
	"statmatch/internal/worker"
)

// Daemon coordinates background processing and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	queue   *queue.Store
	worker  *worker.Worker
	logPath string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	StoreDBPath  string
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, fpStore *store.Store, queueStore *queue.Store, w *worker.Worker, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || fpStore == nil || queueStore == nil || logger == nil || w == nil {
		return nil, errors.New("daemon requires config, stores, logger, and worker")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "statmatchd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    fpStore,
		queue:    queueStore,
		worker:   w,
		logPath:  filepath.Join(cfg.Paths.LogDir, "statmatch.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start launches the worker and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another statmatch daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.worker.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start worker: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("statmatch daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("statmatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.queue != nil {
		errs = append(errs, d.queue.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// QueueHealth returns aggregate diagnostics for the named queue.
func (d *Daemon) QueueHealth(ctx context.Context, queueName string) (queue.HealthSummary, error) {
	if d.queue == nil {
		return queue.HealthSummary{}, errors.New("queue store unavailable")
	}
	return d.queue.Health(ctx, queueName)
}

// PurgeQueue removes terminal messages from the named queue.
func (d *Daemon) PurgeQueue(ctx context.Context, queueName string) (int64, error) {
	if d.queue == nil {
		return 0, errors.New("queue store unavailable")
	}
	return d.queue.Purge(ctx, queueName)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		StoreDBPath:  d.cfg.Store.Path,
		QueueDBPath:  d.cfg.Queue.Path,
		LockFilePath: d.lockPath,
	}
}
