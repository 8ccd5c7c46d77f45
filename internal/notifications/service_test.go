package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"statmatch/internal/config"
	"statmatch/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyBatchCompleted(context.Background(), "exp-1", 3, 3, time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Batches = true
	cfg.Notifications.Errors = true
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyBatchCompleted(ctx, "exp-1", 4, 3, 1500*time.Millisecond); err != nil {
		t.Fatalf("notify batch completed: %v", err)
	}
	if captured.title != "Statmatch - Batch Complete" {
		t.Errorf("title = %q", captured.title)
	}
	if captured.body != "Experiment exp-1: 4 candidates ranked, 3 verified in 1.5s" {
		t.Errorf("body = %q", captured.body)
	}
	if captured.tags != "statmatch,batch,completed" {
		t.Errorf("tags = %q", captured.tags)
	}

	if err := svc.NotifyError(ctx, errors.New("store unreachable"), "batch"); err != nil {
		t.Fatalf("notify error: %v", err)
	}
	if captured.body != "Error with batch: store unreachable" {
		t.Errorf("error body = %q", captured.body)
	}
	if captured.priority != "high" {
		t.Errorf("priority = %q, want high", captured.priority)
	}
}

func TestNtfyServiceRespectsEventToggles(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Batches = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyBatchCompleted(ctx, "exp-1", 1, 1, time.Second); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := svc.NotifyBatchFailed(ctx, "exp-1", "bad envelope"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("x"), "batch"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if hits != 0 {
		t.Errorf("expected no requests with events disabled, got %d", hits)
	}

	// Test notifications always go through.
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("test notification: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected test notification to be delivered, got %d hits", hits)
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
