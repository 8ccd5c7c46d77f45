// Package testsupport provides shared helpers for package tests: temp-dir
// configurations, opened stores, and canned fingerprint documents.
package testsupport

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"statmatch/internal/config"
	"statmatch/internal/queue"
	"statmatch/internal/store"
)

// NewConfig returns a validated configuration rooted in a temp directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Store.Path = filepath.Join(base, "data", "fingerprints.db")
	cfg.Queue.Path = filepath.Join(base, "data", "queue.db")
	cfg.Matching.RootFingerprintID1 = "root-1"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// MustOpenStore opens the fingerprint store at the configured path.
func MustOpenStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// MustOpenQueue opens the message queue store at the configured path.
func MustOpenQueue(t *testing.T, cfg *config.Config) *queue.Store {
	t.Helper()
	q, err := queue.Open(cfg.Queue.Path)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// StatOptions shapes the statistics block of a generated document.
type StatOptions struct {
	Min, Max, Mean, Median, StdDev float64
	UniqueCount, NullCount         float64
	P25, P50, P75                  float64
}

// UniformStats returns a statistics block whose ten canonical values are
// all base shifted by evenly spaced offsets, so two documents built from
// bases b1 and b2 sit at Wasserstein distance |b1-b2| from each other.
func UniformStats(base float64) StatOptions {
	return StatOptions{
		Min:         base,
		Max:         base + 9,
		Mean:        base + 4,
		Median:      base + 5,
		StdDev:      base + 1,
		UniqueCount: base + 6,
		NullCount:   base + 2,
		P25:         base + 3,
		P50:         base + 7,
		P75:         base + 8,
	}
}

// FingerprintDoc renders a raw fingerprint document with the given field
// id, field name, and statistics.
func FingerprintDoc(t *testing.T, fieldID, name string, stats StatOptions) []byte {
	t.Helper()
	doc := map[string]any{
		"RawFingerprintJson": map[string]any{
			"fingerprint": map[string]any{
				"recordSet": []any{
					map[string]any{
						"field": []any{
							map[string]any{
								"@id":      fieldID,
								"name":     name,
								"dataType": "xsd:double",
								"statistics": map[string]any{
									"min":         stats.Min,
									"max":         stats.Max,
									"mean":        stats.Mean,
									"median":      stats.Median,
									"stdDev":      stats.StdDev,
									"uniqueCount": stats.UniqueCount,
									"nullCount":   stats.NullCount,
									"percentiles": map[string]any{
										"p25": stats.P25,
										"p50": stats.P50,
										"p75": stats.P75,
									},
								},
							},
						},
					},
				},
			},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fingerprint doc: %v", err)
	}
	return raw
}

// SeedFingerprint stores a generated document under the given id.
func SeedFingerprint(t *testing.T, s *store.Store, id, fieldID, name string, stats StatOptions) {
	t.Helper()
	if err := s.Put(context.Background(), id, FingerprintDoc(t, fieldID, name, stats)); err != nil {
		t.Fatalf("seed fingerprint %s: %v", id, err)
	}
}
