package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/lazycard/internal/config"
	"github.com/phrazzld/lazycard/internal/domain"
)

const filePrefix = "lazycard-"

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithInterval overrides the interval derived from the configuration.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

// WithSchedulerClock sets the clock used to name backup files.
func WithSchedulerClock(clock domain.Clock) SchedulerOption {
	return func(s *Scheduler) { s.now = clock }
}

// Scheduler writes periodic backups into a directory and prunes old ones.
type Scheduler struct {
	svc      *Service
	dir      string
	format   Format
	keep     int
	interval time.Duration
	now      domain.Clock
	logger   *slog.Logger

	cron *gocron.Scheduler
	mu   sync.Mutex
	runs atomic.Int64
}

// NewScheduler creates a backup scheduler from the backup configuration.
// An interval of zero disables the periodic job; RunOnce still works.
func NewScheduler(svc *Service, cfg config.BackupConfig, logger *slog.Logger, opts ...SchedulerOption) (*Scheduler, error) {
	if svc == nil {
		return nil, fmt.Errorf("backup service cannot be nil")
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	keep := cfg.Keep
	if keep < 1 {
		keep = 1
	}

	s := &Scheduler{
		svc:      svc,
		dir:      cfg.Dir,
		format:   format,
		keep:     keep,
		interval: time.Duration(cfg.IntervalHours) * time.Hour,
		now:      domain.SystemClock,
		logger:   logger.With(slog.String("component", "backup_scheduler")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start schedules the periodic backup job. The first backup runs
// immediately. Start is a no-op when the interval is zero.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 {
		s.logger.Info("periodic backups disabled")
		return nil
	}
	if s.cron != nil {
		return nil
	}

	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	if _, err := cron.Every(s.interval).Do(s.run); err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	cron.StartAsync()
	s.cron = cron

	s.logger.Info("periodic backups scheduled",
		slog.Duration("interval", s.interval),
		slog.String("dir", s.dir),
		slog.Int("keep", s.keep))
	return nil
}

// Stop stops the periodic job and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

// Runs returns how many backups the scheduler has written.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

func (s *Scheduler) run() {
	if _, err := s.RunOnce(context.Background()); err != nil {
		s.logger.Error("periodic backup failed", slog.String("error", err.Error()))
	}
}

// RunOnce writes one backup file and prunes the directory. It returns the
// path of the new file.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	path := filepath.Join(s.dir, FileName(s.now(), s.format))
	if _, err := s.svc.ExportFile(ctx, path, s.format); err != nil {
		return "", err
	}
	s.runs.Add(1)

	removed, err := Prune(s.dir, s.keep)
	if err != nil {
		return path, err
	}
	s.logger.Info("backup written",
		slog.String("path", path),
		slog.Int("pruned", len(removed)))
	return path, nil
}

// Prune deletes all but the newest keep backup files in dir and returns the
// removed paths. Only files named by FileName are considered.
func Prune(dir string, keep int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) {
			continue
		}
		if ext := filepath.Ext(name); ext != FormatJSON.Extension() && ext != FormatYAML.Extension() {
			continue
		}
		names = append(names, name)
	}
	if len(names) <= keep {
		return nil, nil
	}

	slices.Sort(names)
	stale := names[:len(names)-keep]
	removed := make([]string, 0, len(stale))
	for _, name := range stale {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove old backup: %w", err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
