package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-auto-trader/internal/entity"
	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/internal/trader/strategy"
	"stock-auto-trader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	jobType entity.JobType
	output  string
	err     error
	block   chan struct{}
	started chan struct{}
	dryRuns []bool
}

func (f *fakeStrategy) GetType() entity.JobType { return f.jobType }

func (f *fakeStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	f.dryRuns = append(f.dryRuns, job.DryRun)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.output, f.err
}

func schedulerConfig() *config.Config {
	cfg := testConfig()
	cfg.Scheduler.Jobs = []entity.Job{
		{Name: "buy", Type: entity.JobTypeAutoBuy, CronExpression: "*/5 * * * *", MarketHoursOnly: true},
		{Name: "refresh", Type: entity.JobTypeTechnicalRefresh, CronExpression: "@daily"},
	}
	return cfg
}

func newTestScheduler(t *testing.T, cfg *config.Config, enabled bool, strategies ...strategy.JobExecutionStrategy) (*schedulerService, *fakeHistory) {
	t.Helper()
	history := &fakeHistory{}
	svc, err := NewSchedulerService(cfg, logger.NewNop(), history, strategies, NewSchedulerState(enabled))
	require.NoError(t, err)
	s := svc.(*schedulerService)
	s.now = func() time.Time { return fixedNow }
	return s, history
}

func TestSchedulerService_New(t *testing.T) {
	t.Run("rejects an invalid cron expression", func(t *testing.T) {
		cfg := schedulerConfig()
		cfg.Scheduler.Jobs[0].CronExpression = "every now and then"
		_, err := NewSchedulerService(cfg, logger.NewNop(), &fakeHistory{}, []strategy.JobExecutionStrategy{
			&fakeStrategy{jobType: entity.JobTypeAutoBuy},
			&fakeStrategy{jobType: entity.JobTypeTechnicalRefresh},
		}, NewSchedulerState(true))
		assert.Error(t, err)
	})

	t.Run("rejects a job without a strategy", func(t *testing.T) {
		_, err := NewSchedulerService(schedulerConfig(), logger.NewNop(), &fakeHistory{}, []strategy.JobExecutionStrategy{
			&fakeStrategy{jobType: entity.JobTypeAutoBuy},
		}, NewSchedulerState(true))
		assert.Error(t, err)
	})
}

func TestSchedulerService_RunNow(t *testing.T) {
	ctx := context.Background()

	t.Run("records a completed run with its output", func(t *testing.T) {
		buy := &fakeStrategy{jobType: entity.JobTypeAutoBuy, output: `{"orders":[]}`}
		s, history := newTestScheduler(t, schedulerConfig(), true, buy, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})

		resp, err := s.RunNow(ctx, "buy", true)
		require.NoError(t, err)

		assert.Equal(t, string(entity.StatusCompleted), resp.Status)
		assert.Equal(t, TriggerManual, resp.Trigger)
		assert.Equal(t, `{"orders":[]}`, resp.Output)
		assert.Equal(t, []bool{true}, buy.dryRuns)

		row := history.last()
		assert.Equal(t, entity.StatusCompleted, row.Status)
		assert.True(t, row.CompletedAt.Valid)

		status := s.Status()
		require.Len(t, status.Jobs, 2)
		assert.Equal(t, "buy", status.Jobs[0].Name)
		assert.Equal(t, string(entity.StatusCompleted), status.Jobs[0].LastStatus)
		require.NotNil(t, status.Jobs[0].LastRunAt)
		assert.Nil(t, status.Jobs[1].LastRunAt)
	})

	t.Run("records a failed run", func(t *testing.T) {
		buy := &fakeStrategy{jobType: entity.JobTypeAutoBuy, err: errors.New("broker down")}
		s, history := newTestScheduler(t, schedulerConfig(), true, buy, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})

		resp, err := s.RunNow(ctx, "buy", false)
		require.NoError(t, err)

		assert.Equal(t, string(entity.StatusFailed), resp.Status)
		assert.Equal(t, "broker down", resp.Error)
		assert.Equal(t, "broker down", history.last().ErrorMessage.String)
	})

	t.Run("unknown job", func(t *testing.T) {
		s, _ := newTestScheduler(t, schedulerConfig(), true,
			&fakeStrategy{jobType: entity.JobTypeAutoBuy}, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})

		_, err := s.RunNow(ctx, "nope", false)
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("manual runs ignore the enabled flag and market hours", func(t *testing.T) {
		buy := &fakeStrategy{jobType: entity.JobTypeAutoBuy}
		s, _ := newTestScheduler(t, schedulerConfig(), false, buy, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})
		// Saturday
		s.now = func() time.Time { return time.Date(2024, 3, 16, 15, 0, 0, 0, time.UTC) }

		resp, err := s.RunNow(ctx, "buy", false)
		require.NoError(t, err)
		assert.Equal(t, string(entity.StatusCompleted), resp.Status)
	})

	t.Run("overlapping run is skipped", func(t *testing.T) {
		buy := &fakeStrategy{jobType: entity.JobTypeAutoBuy, block: make(chan struct{}), started: make(chan struct{}, 1)}
		s, _ := newTestScheduler(t, schedulerConfig(), true, buy, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = s.RunNow(ctx, "buy", false)
		}()
		<-buy.started

		resp, err := s.RunNow(ctx, "buy", false)
		require.NoError(t, err)
		assert.Equal(t, string(entity.StatusSkipped), resp.Status)

		close(buy.block)
		<-done
		assert.False(t, s.Status().Jobs[0].Running)
	})
}

func TestSchedulerService_CronTick(t *testing.T) {
	ctx := context.Background()

	t.Run("outside market hours is recorded as skipped", func(t *testing.T) {
		buy := &fakeStrategy{jobType: entity.JobTypeAutoBuy}
		s, history := newTestScheduler(t, schedulerConfig(), true, buy, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})
		// 08:00 New York
		s.now = func() time.Time { return time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC) }

		row := s.run(ctx, s.jobs["buy"].job, TriggerCron)

		require.NotNil(t, row)
		assert.Equal(t, entity.StatusSkipped, row.Status)
		assert.Equal(t, "market closed", row.Output.String)
		assert.Empty(t, buy.dryRuns)
		assert.Len(t, history.rows, 1)
	})

	t.Run("jobs not gated on market hours run any time", func(t *testing.T) {
		refresh := &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh}
		s, _ := newTestScheduler(t, schedulerConfig(), true, &fakeStrategy{jobType: entity.JobTypeAutoBuy}, refresh)
		s.now = func() time.Time { return time.Date(2024, 3, 16, 3, 0, 0, 0, time.UTC) }

		row := s.run(ctx, s.jobs["refresh"].job, TriggerCron)

		require.NotNil(t, row)
		assert.Equal(t, entity.StatusCompleted, row.Status)
	})

	t.Run("ticks are dropped while disabled", func(t *testing.T) {
		buy := &fakeStrategy{jobType: entity.JobTypeAutoBuy}
		s, history := newTestScheduler(t, schedulerConfig(), true, buy, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})
		s.Disable()

		assert.Nil(t, s.run(ctx, s.jobs["buy"].job, TriggerCron))
		assert.Empty(t, history.rows)
		assert.False(t, s.Status().Enabled)

		s.Enable()
		row := s.run(ctx, s.jobs["buy"].job, TriggerCron)
		require.NotNil(t, row)
		assert.Equal(t, entity.StatusCompleted, row.Status)
	})
}

func TestSchedulerService_StartStop(t *testing.T) {
	s, _ := newTestScheduler(t, schedulerConfig(), true,
		&fakeStrategy{jobType: entity.JobTypeAutoBuy}, &fakeStrategy{jobType: entity.JobTypeTechnicalRefresh})

	s.Start(context.Background())
	status := s.Status()
	for _, job := range status.Jobs {
		assert.NotNil(t, job.NextRunAt, job.Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestExecutionHistoryService(t *testing.T) {
	ctx := context.Background()
	history := &fakeHistory{}
	started := fixedNow
	require.NoError(t, history.Create(ctx, &entity.TaskExecutionHistory{JobName: "buy", JobType: entity.JobTypeAutoBuy, Status: entity.StatusCompleted, StartedAt: started}))
	require.NoError(t, history.Create(ctx, &entity.TaskExecutionHistory{JobName: "sell", JobType: entity.JobTypeSellMonitor, Status: entity.StatusRunning, StartedAt: started}))
	row := history.rows[0]
	row.CompletedAt.Time = started.Add(1500 * time.Millisecond)
	row.CompletedAt.Valid = true
	require.NoError(t, history.Update(ctx, &row))

	svc := NewExecutionHistoryService(history, logger.NewNop())

	t.Run("get by id reports the duration", func(t *testing.T) {
		resp, err := svc.GetExecutionHistoryByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "buy", resp.JobName)
		assert.Equal(t, int64(1500), resp.Duration)
	})

	t.Run("list filters by job", func(t *testing.T) {
		all, err := svc.GetAllExecutionHistories(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		sells, err := svc.GetAllExecutionHistories(ctx, "sell", 10, 0)
		require.NoError(t, err)
		require.Len(t, sells, 1)
		assert.Equal(t, int64(0), sells[0].Duration)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := svc.GetExecutionHistoryByID(ctx, 99)
		assert.Error(t, err)
	})
}
