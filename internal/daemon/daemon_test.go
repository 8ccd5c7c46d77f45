package daemon_test

import (
	"context"
	"testing"
	"time"

	"statmatch/internal/daemon"
	"statmatch/internal/logging"
	"statmatch/internal/testsupport"
	"statmatch/internal/worker"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	fpStore := testsupport.MustOpenStore(t, cfg)
	queueStore := testsupport.MustOpenQueue(t, cfg)
	logger := logging.NewNop()

	processor := worker.NewProcessor(cfg, fpStore, queueStore, nil, nil, logger)
	w := worker.New(cfg, queueStore, processor, nil, logger)

	d, err := daemon.New(cfg, fpStore, queueStore, w, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath == "" || status.QueueDBPath == "" {
		t.Errorf("incomplete status: %+v", status)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestDaemonQueueHelpers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fpStore := testsupport.MustOpenStore(t, cfg)
	queueStore := testsupport.MustOpenQueue(t, cfg)
	logger := logging.NewNop()

	processor := worker.NewProcessor(cfg, fpStore, queueStore, nil, nil, logger)
	w := worker.New(cfg, queueStore, processor, nil, logger)
	d, err := daemon.New(cfg, fpStore, queueStore, w, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx := context.Background()
	if _, err := queueStore.Publish(ctx, cfg.Queue.InboundQueue, []byte(`{}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	health, err := d.QueueHealth(ctx, cfg.Queue.InboundQueue)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	if health.Pending != 1 {
		t.Errorf("pending = %d, want 1", health.Pending)
	}

	msg, err := queueStore.Next(ctx, cfg.Queue.InboundQueue)
	if err != nil || msg == nil {
		t.Fatalf("next: msg=%v err=%v", msg, err)
	}
	if err := queueStore.Discard(ctx, msg.ID, "test"); err != nil {
		t.Fatalf("discard: %v", err)
	}

	purged, err := d.PurgeQueue(ctx, cfg.Queue.InboundQueue)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}

func TestDaemonTestNotificationWithoutTopic(t *testing.T) {
	d := newDaemon(t)
	sent, detail, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("test notification: %v", err)
	}
	if sent {
		t.Error("expected no notification without configured topic")
	}
	if detail == "" {
		t.Error("expected explanatory detail")
	}
}
