// Package daemonrun wires configuration, stores, worker, and daemon into
// the statmatchd process lifecycle.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"statmatch/internal/config"
	"statmatch/internal/daemon"
	"statmatch/internal/logging"
	"statmatch/internal/notifications"
	"statmatch/internal/preflight"
	"statmatch/internal/queue"
	"statmatch/internal/services/experiments"
	"statmatch/internal/store"
	"statmatch/internal/worker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the statmatch daemon runtime loop and blocks until the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("statmatch-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       opts.LogLevel,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update statmatch.log link: %v\n", err)
	}

	failed := preflight.Failed(preflight.RunAll(signalCtx, cfg))
	for _, result := range failed {
		logger.Error("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d preflight check(s) failed", len(failed))
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "statmatch.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	fpStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("open fingerprint store", logging.Error(err))
		return err
	}

	queueStore, err := queue.Open(cfg.Queue.Path)
	if err != nil {
		logger.Error("open message queue", logging.Error(err))
		_ = fpStore.Close()
		return err
	}

	notifier := notifications.NewService(cfg)
	var statuses worker.StatusFetcher
	if client := experiments.New(cfg); client != nil {
		statuses = client
	}
	processor := worker.NewProcessor(cfg, fpStore, queueStore, statuses, notifier, logger)
	w := worker.New(cfg, queueStore, processor, notifier, logger)

	d, err := daemon.New(cfg, fpStore, queueStore, w, logger)
	if err != nil {
		_ = queueStore.Close()
		_ = fpStore.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("statmatch daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "statmatch.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
