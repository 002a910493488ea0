package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type everyTick time.Duration

func (e everyTick) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

type countingTask struct {
	runs     atomic.Int32
	startup  bool
	schedule cron.Schedule
	panicOn  int32
}

func (c *countingTask) Name() string            { return "counting" }
func (c *countingTask) Schedule() cron.Schedule { return c.schedule }
func (c *countingTask) IsStartupRun() bool      { return c.startup }
func (c *countingTask) Run(ctx context.Context) error {
	if n := c.runs.Add(1); n == c.panicOn {
		panic("boom")
	}
	return nil
}

func TestParseSchedule(t *testing.T) {
	s, err := ParseSchedule("")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = ParseSchedule("@every 15m")
	require.NoError(t, err)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base.Add(15*time.Minute), s.Next(base))

	s, err = ParseSchedule("30 2 * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 2, 30, 0, 0, time.UTC), s.Next(base))

	_, err = ParseSchedule("every now and then")
	assert.Error(t, err)
}

func TestSchedulerStartupRunOnly(t *testing.T) {
	task := &countingTask{startup: true}
	s := NewScheduler(zap.NewNop())
	s.AddTask(task)

	s.Start(context.Background())
	s.Wait()
	assert.EqualValues(t, 1, task.runs.Load())
}

func TestSchedulerLoopsAndSurvivesPanic(t *testing.T) {
	task := &countingTask{schedule: everyTick(5 * time.Millisecond), panicOn: 1}
	s := NewScheduler(zap.NewNop())
	s.AddTask(task)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return task.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	stopped := task.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, task.runs.Load())
}

func TestSchedulerWithoutTasks(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	s.Start(context.Background())
	s.Wait()
}
