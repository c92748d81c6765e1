package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appinv "github.com/dairy/backend/internal/application/inventory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExecutor struct {
	mu       sync.Mutex
	runs     []JobType
	failures map[JobType]int
}

func (e *recordingExecutor) Execute(_ context.Context, job *Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs = append(e.runs, job.Type)
	if e.failures[job.Type] > 0 {
		e.failures[job.Type]--
		return errors.New("boom")
	}
	return nil
}

// startScheduler returns a started scheduler and a channel that receives
// every job once it is done for good
func startScheduler(t *testing.T, cfg Config, exec JobExecutor) (*Scheduler, <-chan *Job) {
	t.Helper()
	s := NewScheduler(cfg, exec, zap.NewNop())
	done := make(chan *Job, 16)
	s.onDone = func(j *Job) { done <- j }
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s, done
}

func waitJob(t *testing.T, done <-chan *Job) *Job {
	t.Helper()
	select {
	case j := <-done:
		return j
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
		return nil
	}
}

func TestSchedulerRunsNightlyJobs(t *testing.T) {
	exec := &recordingExecutor{}
	s, done := startScheduler(t, Config{Workers: 2}, exec)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.ScheduleNightly(day))
	seen := map[JobType]JobStatus{}
	for range NightlyJobTypes() {
		j := waitJob(t, done)
		seen[j.Type] = j.Status
		assert.True(t, j.Date.Equal(day))
	}
	assert.Equal(t, map[JobType]JobStatus{
		JobTypeLedgerAudit:   JobStatusSuccess,
		JobTypeReportArchive: JobStatusSuccess,
	}, seen)
}

func TestSchedulerRetries(t *testing.T) {
	exec := &recordingExecutor{failures: map[JobType]int{JobTypeLedgerAudit: 2, JobTypeReportArchive: 5}}
	s, done := startScheduler(t, Config{Workers: 1, RetryAttempts: 2, RetryDelay: time.Millisecond}, exec)

	require.NoError(t, s.SubmitJob(NewJob(JobTypeLedgerAudit, time.Now(), 2)))
	j := waitJob(t, done)
	assert.Equal(t, JobStatusSuccess, j.Status)
	assert.Equal(t, 2, j.RetryCount)

	require.NoError(t, s.SubmitJob(NewJob(JobTypeReportArchive, time.Now(), 2)))
	j = waitJob(t, done)
	assert.Equal(t, JobStatusFailed, j.Status)
	assert.Equal(t, "boom", j.Error)
	assert.False(t, j.ShouldRetry())
}

func TestSchedulerSubmitWhenStopped(t *testing.T) {
	s := NewScheduler(Config{QueueSize: 1}, &recordingExecutor{}, zap.NewNop())
	assert.ErrorIs(t, s.SubmitJob(NewJob(JobTypeLedgerAudit, time.Now(), 0)), ErrSchedulerNotRunning)
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerQueueFull(t *testing.T) {
	s := NewScheduler(Config{Workers: 1, QueueSize: 1}, &recordingExecutor{}, zap.NewNop())
	// running without workers so nothing drains the queue
	s.isRunning = true
	require.NoError(t, s.SubmitJob(NewJob(JobTypeLedgerAudit, time.Now(), 0)))
	assert.ErrorIs(t, s.SubmitJob(NewJob(JobTypeLedgerAudit, time.Now(), 0)), ErrJobQueueFull)
}

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		cronExpr string
		hour     int
		minute   int
		wantErr  bool
	}{
		{"0 2 * * *", 2, 0, false},
		{"30 3 * * *", 3, 30, false},
		{"0 23 * * *", 23, 0, false},
		{"", 2, 0, false},
		{"  15   4   *   *   *  ", 4, 15, false},
		{"* 5 * * *", 5, 0, false},
		{"61 2 * * *", 0, 0, true},
		{"0 24 * * *", 0, 0, true},
		{"a 2 * * *", 0, 0, true},
		{"5", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.cronExpr, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		})
	}
}

func TestDailyTriggerFiresOncePerDay(t *testing.T) {
	exec := &recordingExecutor{}
	s, done := startScheduler(t, Config{Workers: 1}, exec)
	trigger := NewDailyTrigger(DailyTriggerConfig{Hour: 2, Minute: 30}, s, zap.NewNop())

	clock := time.Date(2026, 3, 15, 2, 29, 0, 0, time.UTC)
	trigger.now = func() time.Time { return clock }
	assert.False(t, trigger.checkAndTrigger(), "too early")

	clock = clock.Add(time.Minute)
	assert.True(t, trigger.checkAndTrigger())
	assert.False(t, trigger.checkAndTrigger(), "already ran today")

	for range NightlyJobTypes() {
		j := waitJob(t, done)
		assert.Equal(t, "2026-03-14", j.Date.Format(time.DateOnly), "jobs cover the previous day")
	}

	clock = clock.AddDate(0, 0, 1)
	assert.True(t, trigger.checkAndTrigger())
}

type fakeAuditor struct {
	resp *appinv.LedgerAuditResponse
	err  error
}

func (f fakeAuditor) AuditLedger(context.Context) (*appinv.LedgerAuditResponse, error) {
	return f.resp, f.err
}

type fakeArchiver struct {
	enabled bool
	from    time.Time
	calls   int
}

func (f *fakeArchiver) ArchiveEnabled() bool { return f.enabled }

func (f *fakeArchiver) ArchiveFinalizedSince(_ context.Context, from time.Time) (int, error) {
	f.calls++
	f.from = from
	return 1, nil
}

func TestMaintenanceExecutor(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("clean audit", func(t *testing.T) {
		exec := NewMaintenanceExecutor(fakeAuditor{resp: &appinv.LedgerAuditResponse{BatchesChecked: 4}}, &fakeArchiver{}, zap.NewNop())
		assert.NoError(t, exec.Execute(ctx, NewJob(JobTypeLedgerAudit, day, 0)))
	})

	t.Run("drift fails the job", func(t *testing.T) {
		exec := NewMaintenanceExecutor(fakeAuditor{resp: &appinv.LedgerAuditResponse{
			BatchesChecked: 4,
			Inconsistent:   []uuid.UUID{uuid.New()},
		}}, &fakeArchiver{}, zap.NewNop())
		assert.ErrorIs(t, exec.Execute(ctx, NewJob(JobTypeLedgerAudit, day, 0)), ErrLedgerDrift)
	})

	t.Run("archive disabled", func(t *testing.T) {
		archiver := &fakeArchiver{}
		exec := NewMaintenanceExecutor(fakeAuditor{}, archiver, zap.NewNop())
		assert.NoError(t, exec.Execute(ctx, NewJob(JobTypeReportArchive, day, 0)))
		assert.Zero(t, archiver.calls)
	})

	t.Run("archive sweep looks back a week", func(t *testing.T) {
		archiver := &fakeArchiver{enabled: true}
		exec := NewMaintenanceExecutor(fakeAuditor{}, archiver, zap.NewNop())
		require.NoError(t, exec.Execute(ctx, NewJob(JobTypeReportArchive, day, 0)))
		assert.Equal(t, 1, archiver.calls)
		assert.True(t, archiver.from.Equal(day.AddDate(0, 0, -7)))
	})

	t.Run("unknown job", func(t *testing.T) {
		exec := NewMaintenanceExecutor(fakeAuditor{}, &fakeArchiver{}, zap.NewNop())
		assert.ErrorIs(t, exec.Execute(ctx, NewJob("VACUUM", day, 0)), ErrUnknownJobType)
	})
}
