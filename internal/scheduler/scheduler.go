// Package scheduler runs the fetch and process pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TickData/internal/asset"
	"TickData/internal/collector"
	"TickData/internal/notifier"
	"TickData/internal/recorder"
	"TickData/internal/tickfile"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrBusy is returned by RunNow while another run is in progress.
var ErrBusy = errors.New("a run is already in progress")

// Trigger names recorded with each run.
const (
	TriggerCron   = "cron"
	TriggerChat   = "chat"
	TriggerManual = "manual"
)

// Pipeline is the work done by one run; *collector.Collector implements it.
type Pipeline interface {
	Purge() ([]string, error)
	FetchAll(ctx context.Context, assets []*asset.Asset) (*collector.FetchSummary, error)
	ProcessAll(ctx context.Context, assets []*asset.Asset) ([]*collector.AssetResult, error)
}

// Scheduler manages the cron task and manual runs.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline Pipeline
	Assets   []*asset.Asset
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Ctx      context.Context

	running atomic.Bool
	mu      sync.Mutex
	last    *recorder.Run
	now     func() time.Time
	log     *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p Pipeline, assets []*asset.Asset, n notifier.Notifier, rec recorder.Recorder, log *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Assets:   assets,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		now:      time.Now,
		log:      log,
	}
}

// Register schedules the pipeline on expr, a six-field cron expression.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.cronTask); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// LastRun returns the most recent finished run, or nil.
func (s *Scheduler) LastRun() *recorder.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Running reports whether a run is in progress.
func (s *Scheduler) Running() bool { return s.running.Load() }

func (s *Scheduler) cronTask() {
	if _, err := s.RunNow(TriggerCron); errors.Is(err, ErrBusy) {
		s.log.Warn("skipped scheduled run, previous run still active")
	}
}

// RunNow purges, fetches and processes immediately. It returns ErrBusy
// without doing anything when a run is already in progress.
func (s *Scheduler) RunNow(trigger string) (*recorder.Run, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	run := &recorder.Run{ID: uuid.NewString(), Trigger: trigger, StartedAt: s.now()}
	log := s.log.With(zap.String("run", run.ID), zap.String("trigger", trigger))
	log.Info("run started")

	results, err := s.execute(log, run)
	run.FinishedAt = s.now()
	if err != nil {
		run.Err = err.Error()
		log.Error("run failed", zap.Error(err))
	} else {
		log.Info("run finished",
			zap.Int("files", run.Files),
			zap.Int("ticks", run.Ticks),
			zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)))
	}

	if rerr := s.Recorder.RecordRun(run); rerr != nil {
		log.Error("record run", zap.Error(rerr))
	}
	s.mu.Lock()
	s.last = run
	s.mu.Unlock()

	s.trySend(notifier.FormatRunReport(run, results))
	return run, err
}

func (s *Scheduler) execute(log *zap.Logger, run *recorder.Run) ([]*collector.AssetResult, error) {
	if _, err := s.Pipeline.Purge(); err != nil {
		log.Warn("purge failed", zap.Error(err))
	}

	summary, err := s.Pipeline.FetchAll(s.Ctx, s.Assets)
	if summary != nil {
		run.Queued = summary.Queued
		run.Skipped = summary.Skipped
		run.Fetched = len(summary.Fetched)
		for _, f := range summary.Fetched {
			if rerr := s.Recorder.RecordArchive(&recorder.ArchiveEvent{
				RunID:  run.ID,
				Symbol: f.Job.Asset.Symbol().String(),
				Year:   f.Job.Year,
				Month:  int(f.Job.Month),
				Bytes:  f.Bytes,
				Path:   f.Path,
			}); rerr != nil {
				log.Error("record archive", zap.Error(rerr))
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	results, err := s.Pipeline.ProcessAll(s.Ctx, s.Assets)
	for _, res := range results {
		if res == nil {
			continue
		}
		run.Ticks += res.Ticks
		for _, saved := range res.Saved {
			if saved.Kind == tickfile.Ticks {
				run.Files++
			}
			if rerr := s.Recorder.RecordTickFile(&recorder.TickFileEvent{
				RunID:    run.ID,
				Name:     saved.Name,
				Symbol:   saved.Symbol,
				BaseDate: saved.BaseDate,
				Kind:     saved.Kind.String(),
				Ticks:    saved.Ticks,
				Bytes:    saved.Bytes,
				Path:     saved.Path,
			}); rerr != nil {
				log.Error("record tick file", zap.Error(rerr))
			}
		}
	}
	if err != nil {
		return results, fmt.Errorf("process: %w", err)
	}
	return results, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/run":
		if s.Running() {
			return "A run is already in progress."
		}
		go s.RunNow(TriggerChat)
		return "Run started."
	case "/status":
		return notifier.FormatStatus(s.LastRun(), s.Running())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error("send notification", zap.Error(err))
	}
}
