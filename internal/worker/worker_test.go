package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"statmatch/internal/batch"
	"statmatch/internal/queue"
	"statmatch/internal/testsupport"
)

func waitForResult(t *testing.T, q *queue.Store, queueName string, timeout time.Duration) *queue.Message {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msg, err := q.Next(context.Background(), queueName)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if msg != nil {
			return msg
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for result message")
	return nil
}

func waitForHealth(t *testing.T, q *queue.Store, queueName string, check func(queue.HealthSummary) bool, timeout time.Duration) queue.HealthSummary {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var summary queue.HealthSummary
	for time.Now().Before(deadline) {
		var err error
		summary, err = q.Health(context.Background(), queueName)
		if err != nil {
			t.Fatalf("health: %v", err)
		}
		if check(summary) {
			return summary
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for queue state, last health %+v", summary)
	return summary
}

func TestWorkerProcessesBatchEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	fpStore := testsupport.MustOpenStore(t, cfg)
	queueStore := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	testsupport.SeedFingerprint(t, fpStore, "root-1", "dataset/Temp", "Temp", testsupport.UniformStats(100))
	testsupport.SeedFingerprint(t, fpStore, "c1", "dataset/Temp", "Temperature", testsupport.UniformStats(104))

	body := []byte(`{"experimentId": "exp-e2e", "fingerprints": [{"fingerprintId": "c1"}]}`)
	if _, err := queueStore.Publish(ctx, cfg.Queue.InboundQueue, body); err != nil {
		t.Fatalf("publish request: %v", err)
	}

	processor := NewProcessor(cfg, fpStore, queueStore, nil, nil, nil)
	w := New(cfg, queueStore, processor, nil, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	msg := waitForResult(t, queueStore, cfg.Queue.OutboundQueue, 5*time.Second)
	var result batch.Result
	if err := json.Unmarshal(msg.Body, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ExperimentID != "exp-e2e" {
		t.Errorf("experiment id = %q", result.ExperimentID)
	}
	if result.ClosestFingerprint == nil || *result.ClosestFingerprint != "c1" {
		t.Errorf("closest = %v, want c1", result.ClosestFingerprint)
	}

	waitForHealth(t, queueStore, cfg.Queue.InboundQueue, func(h queue.HealthSummary) bool {
		return h.Done == 1
	}, 5*time.Second)
}

func TestWorkerDiscardsMalformedMessage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	fpStore := testsupport.MustOpenStore(t, cfg)
	queueStore := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	testsupport.SeedFingerprint(t, fpStore, "root-1", "dataset/Temp", "Temp", testsupport.UniformStats(100))

	if _, err := queueStore.Publish(ctx, cfg.Queue.InboundQueue, []byte(`not json at all`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	processor := NewProcessor(cfg, fpStore, queueStore, nil, nil, nil)
	w := New(cfg, queueStore, processor, nil, nil)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	health := waitForHealth(t, queueStore, cfg.Queue.InboundQueue, func(h queue.HealthSummary) bool {
		return h.Dead == 1
	}, 5*time.Second)
	if health.Pending != 0 || health.Processing != 0 {
		t.Errorf("health = %+v, want only dead", health)
	}

	// No result may be published for a discarded batch.
	outHealth, err := queueStore.Health(ctx, cfg.Queue.OutboundQueue)
	if err != nil {
		t.Fatalf("outbound health: %v", err)
	}
	if outHealth.Total != 0 {
		t.Errorf("outbound queue has %d messages, want 0", outHealth.Total)
	}
}

func TestWorkerStartTwiceFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fpStore := testsupport.MustOpenStore(t, cfg)
	queueStore := testsupport.MustOpenQueue(t, cfg)

	processor := NewProcessor(cfg, fpStore, queueStore, nil, nil, nil)
	w := New(cfg, queueStore, processor, nil, nil)
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()
	if err := w.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}
}

func TestWorkerStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fpStore := testsupport.MustOpenStore(t, cfg)
	queueStore := testsupport.MustOpenQueue(t, cfg)

	processor := NewProcessor(cfg, fpStore, queueStore, nil, nil, nil)
	w := New(cfg, queueStore, processor, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	w.Stop()
	w.Stop()
}
