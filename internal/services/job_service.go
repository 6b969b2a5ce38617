package services

import (
	"context"
	"sync"
	"time"

	"github.com/sjperalta/gramin-ledger/internal/jobs"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
)

const (
	SettlementJobName = "yearly-settlement"

	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// SettlementRun is the outcome of the latest background settlement
type SettlementRun struct {
	Trigger    string            `json:"trigger"`
	Year       string            `json:"year,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Result     *SettlementResult `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// JobStatus is the worker pool, its cron entries and the last settlement seen in the background
type JobStatus struct {
	Worker         jobs.WorkerStats    `json:"worker"`
	Scheduled      []jobs.ScheduledJob `json:"scheduled"`
	LastSettlement *SettlementRun      `json:"last_settlement,omitempty"`
}

// JobService runs settlements off the request path, on the cron schedule or on demand
type JobService struct {
	worker     *jobs.Worker
	settlement *SettlementService
	now        Clock

	mu   sync.RWMutex
	last *SettlementRun
}

func NewJobService(worker *jobs.Worker, settlement *SettlementService, clock Clock) *JobService {
	return &JobService{
		worker:     worker,
		settlement: settlement,
		now:        clock,
	}
}

// ScheduleYearlySettlement registers the sweep of the current financial year under spec
func (s *JobService) ScheduleYearlySettlement(spec string) error {
	return s.worker.ScheduleCron(SettlementJobName, spec, func(ctx context.Context) error {
		return s.settle(ctx, TriggerSchedule, "")
	})
}

// EnqueueSettlement queues a run for year, or the current year when empty
func (s *JobService) EnqueueSettlement(year string) {
	s.worker.Enqueue(func(ctx context.Context) error {
		return s.settle(ctx, TriggerManual, year)
	})
}

func (s *JobService) settle(ctx context.Context, trigger, year string) error {
	run := &SettlementRun{Trigger: trigger, Year: year, StartedAt: s.now()}
	logger.Info("[Job] Running settlement", "trigger", trigger, "financial_year", year)

	result, err := s.settlement.Run(ctx, year)
	run.FinishedAt = s.now()
	if err != nil {
		run.Error = err.Error()
	} else {
		run.Result = result
		run.Year = result.Year
		logger.Info("[Job] Settlement finished",
			"run_id", result.RunID,
			"financial_year", result.Year,
			"processed", result.Processed(),
			"skipped", result.Skipped,
		)
	}

	s.mu.Lock()
	s.last = run
	s.mu.Unlock()
	return err
}

// LastSettlement returns the most recent background run, nil before the first one
func (s *JobService) LastSettlement() *SettlementRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	run := *s.last
	return &run
}

func (s *JobService) GetStatus() JobStatus {
	return JobStatus{
		Worker:         s.worker.GetStats(),
		Scheduled:      s.worker.Scheduled(),
		LastSettlement: s.LastSettlement(),
	}
}
