package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/dto"
	"stock-auto-trader/internal/trader/repository"
	"stock-auto-trader/internal/trader/strategy"
	"stock-auto-trader/pkg/logger"
	"stock-auto-trader/pkg/tracing"
	"stock-auto-trader/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	TriggerCron   = "cron"
	TriggerManual = "manual"

	defaultJobTimeout = 10 * time.Minute
)

var ErrJobNotFound = errors.New("job not found")

// SchedulerService runs the configured jobs on their cron schedules and on
// demand. Cron ticks are dropped while the scheduler is disabled, and ticks
// of market-hours jobs outside the US session are recorded as skipped.
type SchedulerService interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Enable()
	Disable()
	Status() dto.SchedulerStatusResponse
	RunNow(ctx context.Context, name string, dryRun bool) (*dto.ExecutionHistoryResponse, error)
}

// NewSchedulerService creates a new scheduler service. Every job must have a
// valid cron expression and a registered strategy.
func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	historyRepo repository.TaskExecutionHistoryRepository,
	strategies []strategy.JobExecutionStrategy,
	state *SchedulerState,
) (SchedulerService, error) {
	hours, err := utils.USMarketHours()
	if err != nil {
		return nil, fmt.Errorf("failed to load market hours: %w", err)
	}

	strategyMap := make(map[entity.JobType]strategy.JobExecutionStrategy)
	for _, s := range strategies {
		strategyMap[s.GetType()] = s
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	jobs := make(map[string]scheduledJob, len(cfg.Scheduler.Jobs))
	order := make([]string, 0, len(cfg.Scheduler.Jobs))
	for _, job := range cfg.Scheduler.Jobs {
		schedule, err := parser.Parse(job.CronExpression)
		if err != nil {
			return nil, fmt.Errorf("job %q: invalid cron expression %q: %w", job.Name, job.CronExpression, err)
		}
		if _, ok := strategyMap[job.Type]; !ok {
			return nil, fmt.Errorf("job %q: no strategy for type %q", job.Name, job.Type)
		}
		if _, dup := jobs[job.Name]; dup {
			return nil, fmt.Errorf("job %q is declared twice", job.Name)
		}
		jobs[job.Name] = scheduledJob{job: job, schedule: schedule}
		order = append(order, job.Name)
	}

	return &schedulerService{
		log:         log,
		historyRepo: historyRepo,
		strategies:  strategyMap,
		state:       state,
		hours:       hours,
		jobs:        jobs,
		order:       order,
		cron:        cron.New(cron.WithLocation(hours.Location), cron.WithParser(parser)),
		now:         time.Now,
	}, nil
}

type scheduledJob struct {
	job      entity.Job
	schedule cron.Schedule
	entryID  cron.EntryID
}

type schedulerService struct {
	log         *logger.Logger
	historyRepo repository.TaskExecutionHistoryRepository
	strategies  map[entity.JobType]strategy.JobExecutionStrategy
	state       *SchedulerState
	hours       utils.MarketHours
	jobs        map[string]scheduledJob
	order       []string
	cron        *cron.Cron
	now         func() time.Time
}

// Start registers every job and starts the cron loop. Runs use ctx as their
// parent context.
func (s *schedulerService) Start(ctx context.Context) {
	for _, name := range s.order {
		sj := s.jobs[name]
		job := sj.job
		sj.entryID = s.cron.Schedule(sj.schedule, cron.FuncJob(func() {
			s.run(ctx, job, TriggerCron)
		}))
		s.jobs[name] = sj
		s.log.Info("Job scheduled",
			logger.StringField("job", job.Name),
			logger.StringField("type", string(job.Type)),
			logger.StringField("cron", job.CronExpression))
	}
	s.cron.Start()
	s.log.Info("Scheduler started", logger.BoolField("enabled", s.state.Enabled()), logger.IntField("jobs", len(s.order)))
}

// Stop stops the cron loop and waits for running jobs or ctx.
func (s *schedulerService) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler service stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *schedulerService) Enable() {
	s.state.SetEnabled(true)
	s.log.Info("Scheduler enabled")
}

func (s *schedulerService) Disable() {
	s.state.SetEnabled(false)
	s.log.Info("Scheduler disabled")
}

func (s *schedulerService) Status() dto.SchedulerStatusResponse {
	resp := dto.SchedulerStatusResponse{Enabled: s.state.Enabled(), Jobs: make([]dto.JobStatus, 0, len(s.order))}
	for _, name := range s.order {
		sj := s.jobs[name]
		js := s.state.snapshot(name)
		status := dto.JobStatus{
			Name:       sj.job.Name,
			Type:       string(sj.job.Type),
			Cron:       sj.job.CronExpression,
			Running:    js.running,
			LastStatus: string(js.lastStatus),
		}
		if !js.lastRunAt.IsZero() {
			status.LastRunAt = utils.ToPointer(js.lastRunAt)
		}
		if sj.entryID != 0 {
			if next := s.cron.Entry(sj.entryID).Next; !next.IsZero() {
				status.NextRunAt = utils.ToPointer(next)
			}
		}
		resp.Jobs = append(resp.Jobs, status)
	}
	return resp
}

// RunNow runs a job immediately and waits for it. Manual runs ignore the
// enabled flag and market hours.
func (s *schedulerService) RunNow(ctx context.Context, name string, dryRun bool) (*dto.ExecutionHistoryResponse, error) {
	sj, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	job := sj.job
	job.DryRun = job.DryRun || dryRun

	history := s.run(ctx, job, TriggerManual)
	if history == nil {
		return nil, fmt.Errorf("job %s did not run", name)
	}
	return toExecutionHistoryResponse(history), nil
}

// run executes one tick of job and returns its history row, or nil when the
// tick was dropped.
func (s *schedulerService) run(ctx context.Context, job entity.Job, trigger string) *entity.TaskExecutionHistory {
	now := s.now()
	fields := []zap.Field{
		logger.StringField("job", job.Name),
		logger.StringField("trigger", trigger),
	}

	if trigger == TriggerCron {
		if !s.state.Enabled() {
			s.log.Debug("Scheduler disabled, tick dropped", fields...)
			return nil
		}
		if job.MarketHoursOnly && !s.hours.IsOpen(now) {
			s.log.Debug("Market closed, job skipped", fields...)
			s.state.record(job.Name, now, entity.StatusSkipped)
			return s.skip(ctx, job, trigger, now, "market closed")
		}
	}

	if !s.state.begin(job.Name, now) {
		s.log.Warn("Previous run still in progress, job skipped", fields...)
		return s.skip(ctx, job, trigger, now, "previous run still in progress")
	}
	status := entity.StatusFailed
	defer func() { s.state.finish(job.Name, status) }()

	ctx, span := tracing.StartSpan(ctx, "scheduler.job")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.name", job.Name),
		attribute.String("job.type", string(job.Type)),
		attribute.String("job.trigger", trigger),
		attribute.Bool("job.dry_run", job.DryRun),
	)

	history := &entity.TaskExecutionHistory{
		JobName:   job.Name,
		JobType:   job.Type,
		Trigger:   trigger,
		Status:    entity.StatusRunning,
		StartedAt: now,
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		s.log.ErrorContext(ctx, "Failed to create task history", append(fields, logger.ErrorField(err))...)
	}

	timeout := defaultJobTimeout
	if job.Timeout > 0 {
		timeout = time.Duration(job.Timeout) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := s.strategies[job.Type].Execute(runCtx, &job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.ErrorContext(ctx, "Job failed", append(fields, logger.ErrorField(err))...)
		history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	} else {
		status = entity.StatusCompleted
		s.log.InfoContext(ctx, "Job completed", fields...)
	}

	history.Status = status
	history.Output = sql.NullString{String: output, Valid: output != ""}
	history.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}
	if err := s.historyRepo.Update(ctx, history); err != nil {
		s.log.ErrorContext(ctx, "Failed to update task history", append(fields, logger.ErrorField(err))...)
	}
	return history
}

func (s *schedulerService) skip(ctx context.Context, job entity.Job, trigger string, at time.Time, reason string) *entity.TaskExecutionHistory {
	history := &entity.TaskExecutionHistory{
		JobName:     job.Name,
		JobType:     job.Type,
		Trigger:     trigger,
		Status:      entity.StatusSkipped,
		StartedAt:   at,
		CompletedAt: sql.NullTime{Time: at, Valid: true},
		Output:      sql.NullString{String: reason, Valid: true},
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		s.log.ErrorContext(ctx, "Failed to create task history", logger.StringField("job", job.Name), logger.ErrorField(err))
	}
	return history
}
