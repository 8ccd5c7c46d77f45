package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"statmatch/internal/config"
	"statmatch/internal/queue"
	"statmatch/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minDiskSpace is the free-space floor for the data directory. The SQLite
// stores grow with every batch and WAL checkpointing needs headroom.
const minDiskSpace = 100 << 20

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDiskSpace("Data disk space", cfg.Paths.DataDir),
		CheckFingerprintStore(ctx, cfg.Store.Path),
		CheckQueueStore(ctx, cfg),
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has free headroom.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minDiskSpace {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: only %d MiB free)", path, free>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// CheckFingerprintStore verifies the fingerprint database opens and responds.
func CheckFingerprintStore(ctx context.Context, path string) Result {
	const name = "Fingerprint store"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s, err := store.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer s.Close()

	if err := s.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: ping: %v)", path, err)}
	}
	count, err := s.Count(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: count: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d fingerprints)", path, count)}
}

// CheckQueueStore verifies the message database opens and reports queue depth.
func CheckQueueStore(ctx context.Context, cfg *config.Config) Result {
	const name = "Message queue"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	q, err := queue.Open(cfg.Queue.Path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Queue.Path, err)}
	}
	defer q.Close()

	if err := q.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: ping: %v)", cfg.Queue.Path, err)}
	}
	health, err := q.Health(checkCtx, cfg.Queue.InboundQueue)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: health: %v)", cfg.Queue.Path, err)}
	}
	return Result{Name: name, Passed: true,
		Detail: fmt.Sprintf("%s (%d pending in %s)", cfg.Queue.Path, health.Pending, cfg.Queue.InboundQueue)}
}
