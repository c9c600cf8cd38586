package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"catalogd/internal/config"
	"catalogd/internal/logging"
	"catalogd/internal/pipeline"
)

// Daemon watches the inbox directory and submits each text file as one
// pipeline run. A file lock keeps a single instance per data directory.
type Daemon struct {
	cfg     *config.Config
	manager *pipeline.Manager
	logger  *slog.Logger

	lockPath     string
	lock         *flock.Flock
	pollInterval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Subdirectories of the inbox where handled files land.
const (
	processedDirName = "processed"
	failedDirName    = "failed"
)

// New builds a daemon for the configured inbox.
func New(cfg *config.Config, manager *pipeline.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if manager == nil {
		return nil, errors.New("pipeline manager is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	interval := time.Duration(cfg.Workflow.InboxPollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:          cfg,
		manager:      manager,
		logger:       logger.With(logging.String(logging.FieldComponent, "daemon")),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
		pollInterval: interval,
	}, nil
}

// Start acquires the instance lock and begins polling the inbox.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another catalogd instance is already running")
	}

	for _, dir := range []string{
		d.cfg.Paths.InboxDir,
		filepath.Join(d.cfg.Paths.InboxDir, processedDirName),
		filepath.Join(d.cfg.Paths.InboxDir, failedDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = d.lock.Unlock()
			return fmt.Errorf("create inbox dir %s: %w", dir, err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)

	go d.pollLoop(runCtx)

	d.logger.Info("daemon started",
		logging.String("inbox", d.cfg.Paths.InboxDir),
		logging.String("lock", d.lockPath),
		logging.Duration("poll_interval", d.pollInterval),
	)
	return nil
}

// Stop halts polling, waits for in-flight runs, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	<-d.done
	d.manager.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

func (d *Daemon) pollLoop(ctx context.Context) {
	defer close(d.done)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.PollOnce(ctx); err != nil {
			d.logger.Error("inbox poll failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PollOnce scans the inbox once, submitting each regular file as a run.
// Submitted files move to processed/, unsubmittable files to failed/.
// Returns the number of runs submitted.
func (d *Daemon) PollOnce(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(d.cfg.Paths.InboxDir)
	if err != nil {
		return 0, fmt.Errorf("read inbox: %w", err)
	}

	submitted := 0
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(d.cfg.Paths.InboxDir, entry.Name())
		if err := d.handleFile(ctx, path, entry.Name()); err != nil {
			d.logger.Warn("inbox file rejected",
				logging.String("file", entry.Name()),
				logging.Error(err),
			)
			d.moveTo(path, failedDirName, entry.Name())
			continue
		}
		submitted++
		d.moveTo(path, processedDirName, entry.Name())
	}
	return submitted, nil
}

func (d *Daemon) handleFile(ctx context.Context, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	runID, err := d.manager.Submit(ctx, string(data))
	if err != nil {
		return fmt.Errorf("submit %s: %w", name, err)
	}
	d.logger.Info("inbox file submitted",
		logging.String("file", name),
		logging.String(logging.FieldRunID, runID),
	)
	return nil
}

func (d *Daemon) moveTo(path, subdir, name string) {
	target := filepath.Join(d.cfg.Paths.InboxDir, subdir, name)
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(d.cfg.Paths.InboxDir, subdir,
			fmt.Sprintf("%d_%s", time.Now().UnixNano(), name))
	}
	if err := os.Rename(path, target); err != nil {
		d.logger.Warn("failed to move inbox file",
			logging.String("file", name),
			logging.Error(err),
		)
	}
}
