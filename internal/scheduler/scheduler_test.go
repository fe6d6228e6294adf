package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
)

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	var runs atomic.Int32
	s.AddTask("count", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	s.AddTask("ignored", 0, func(ctx context.Context) error {
		t.Error("间隔为 0 的任务不应执行")
		return nil
	})
	assert.Equal(t, []string{"count"}, s.Tasks())

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestScheduler_SurvivesFailures(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	var runs atomic.Int32
	s.AddTask("flaky", 10*time.Millisecond, func(ctx context.Context) error {
		if runs.Add(1)%2 == 0 {
			panic("boom")
		}
		return errors.New("failed")
	})

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

type fakeRefresher struct{ calls atomic.Int32 }

func (f *fakeRefresher) RefreshAll(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return 2, nil
}

type fakeWarmer struct{ err error }

func (f *fakeWarmer) Warm(ctx context.Context) error { return f.err }

func TestTaskHandler(t *testing.T) {
	refresher := &fakeRefresher{}
	warmer := &fakeWarmer{err: errors.New("redis down")}
	h := NewTaskHandler(refresher, warmer, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, h.RefreshDividendSummaries(ctx))
	assert.Equal(t, int32(1), refresher.calls.Load())

	assert.EqualError(t, h.WarmSettingCache(ctx), "redis down")
}

func TestTaskHandler_Register(t *testing.T) {
	cfg := &config.SchedulerConfig{
		SummaryRefreshInterval: 60,
		SettingWarmInterval:    10,
	}

	s := NewScheduler(zap.NewNop())
	NewTaskHandler(&fakeRefresher{}, &fakeWarmer{}, nil).Register(s, cfg)
	assert.Equal(t, []string{TaskRefreshDividendSummaries, TaskWarmSettingCache}, s.Tasks())

	// 间隔为 0 的任务不注册
	cfg.SettingWarmInterval = 0
	s = NewScheduler(zap.NewNop())
	NewTaskHandler(&fakeRefresher{}, &fakeWarmer{}, nil).Register(s, cfg)
	assert.Equal(t, []string{TaskRefreshDividendSummaries}, s.Tasks())

	s = NewScheduler(zap.NewNop())
	NewTaskHandler(&fakeRefresher{}, nil, nil).Register(s, cfg)
	assert.Equal(t, []string{TaskRefreshDividendSummaries}, s.Tasks())
}
