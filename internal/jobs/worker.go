package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs queued jobs on a fixed pool and cron-scheduled jobs on a robfig/cron scheduler
type Worker struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	queue   chan Job
	workers int

	cron      *cron.Cron
	entries   map[cron.EntryID]ScheduledJob
	entriesMu sync.RWMutex

	stats   WorkerStats
	statsMu sync.RWMutex
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"` // finished jobs, failed ones included
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// ScheduledJob describes a registered cron entry
type ScheduledJob struct {
	Name    string     `json:"name"`
	Spec    string     `json:"spec"`
	NextRun *time.Time `json:"next_run,omitempty"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

// NewWorker creates a worker with N queue processors. Cron specs are evaluated in loc.
func NewWorker(numWorkers int, loc *time.Location) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)

	w := &Worker{
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan Job, 100),
		workers: numWorkers,
		cron:    scheduler,
		entries: make(map[cron.EntryID]ScheduledJob),
	}

	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}
	w.cron.Start()

	return w
}

// Enqueue adds a job to be processed by the worker pool
func (w *Worker) Enqueue(job Job) {
	select {
	case w.queue <- job:
	default:
		logger.Warn("[Worker] Queue full, running job synchronously")
		w.run("queue", job)
	}
}

// process handles jobs from the queue
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			w.run(fmt.Sprintf("worker %d", workerID), job)
		}
	}
}

// ScheduleCron registers job under a standard 5-field cron spec.
// A run still in progress when the next one is due causes that tick to be skipped.
func (w *Worker) ScheduleCron(name, spec string, job Job) error {
	id, err := w.cron.AddFunc(spec, func() {
		w.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}

	w.entriesMu.Lock()
	w.entries[id] = ScheduledJob{Name: name, Spec: spec}
	w.entriesMu.Unlock()

	logger.Info("[Scheduler] Job registered", "job", name, "spec", spec)
	return nil
}

// Scheduled lists cron entries with their next and previous run times
func (w *Worker) Scheduled() []ScheduledJob {
	w.entriesMu.RLock()
	defer w.entriesMu.RUnlock()

	jobs := make([]ScheduledJob, 0, len(w.entries))
	for _, entry := range w.cron.Entries() {
		job, ok := w.entries[entry.ID]
		if !ok {
			continue
		}
		if !entry.Next.IsZero() {
			next := entry.Next
			job.NextRun = &next
		}
		if !entry.Prev.IsZero() {
			prev := entry.Prev
			job.LastRun = &prev
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// run executes one job, recovering panics and counting failures
func (w *Worker) run(name string, job Job) {
	w.trackJobStart()
	defer w.trackJobEnd()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Worker] Job panic", "job", name, "panic", fmt.Sprint(r))
			w.trackJobFailure()
		}
	}()

	start := time.Now()
	if err := job(w.ctx); err != nil {
		logger.Error("[Worker] Job error", "job", name, "error", err)
		w.trackJobFailure()
		return
	}
	logger.Info("[Worker] Job completed", "job", name, "duration", time.Since(start))
}

// Shutdown stops the scheduler, waits for running cron jobs, then drains the pool
func (w *Worker) Shutdown() {
	<-w.cron.Stop().Done()
	w.cancel()
	close(w.queue)
	w.wg.Wait()
}

// Context returns the worker's context for checking cancellation
func (w *Worker) Context() context.Context {
	return w.ctx
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.MaxConcurrent = w.workers
	return stats
}

// cronLogger routes robfig/cron wrapper output into the application logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Info("[Scheduler] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("[Scheduler] "+msg, append(keysAndValues, "error", err)...)
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) trackJobEnd() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
}

func (w *Worker) trackJobFailure() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.FailedJobs++
}
