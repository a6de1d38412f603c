package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

type countingJob struct {
	name string
	err  error
	runs atomic.Int32
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestAddJob(t *testing.T) {
	s := New(quietLog())

	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "a"}))
	require.NoError(t, s.AddJob("0 */5 * * * *", &countingJob{name: "b"}))

	err := s.AddJob("@every 1h", &countingJob{name: "a"})
	assert.ErrorContains(t, err, "already registered")

	err = s.AddJob("not a schedule", &countingJob{name: "c"})
	assert.ErrorContains(t, err, "invalid schedule")

	assert.Len(t, s.Status(), 2)
}

func TestRunNow_RecordsOutcome(t *testing.T) {
	s := New(quietLog())
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("boom")}
	require.NoError(t, s.AddJob("@hourly", ok))
	require.NoError(t, s.AddJob("@hourly", bad))

	require.NoError(t, s.RunNow(ok))
	assert.EqualError(t, s.RunNow(bad), "boom")

	byName := map[string]JobStatus{}
	for _, st := range s.Status() {
		byName[st.Name] = st
	}
	assert.Equal(t, 1, byName["ok"].Runs)
	assert.Empty(t, byName["ok"].LastErr)
	assert.Equal(t, "boom", byName["bad"].LastErr)
	assert.EqualValues(t, 1, ok.runs.Load())
}

func TestStartStop(t *testing.T) {
	s := New(quietLog())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "a"}))
	s.Start()
	s.Stop()
}

type refresherFunc func(ctx context.Context) error

func (f refresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

func TestRefreshCountriesJob(t *testing.T) {
	var gotDeadline bool
	job := NewRefreshCountriesJob(refresherFunc(func(ctx context.Context) error {
		_, gotDeadline = ctx.Deadline()
		return nil
	}), quietLog())

	assert.Equal(t, "countries_refresh", job.Name())
	require.NoError(t, job.Run())
	assert.True(t, gotDeadline)

	failing := NewRefreshCountriesJob(refresherFunc(func(ctx context.Context) error {
		return errors.New("upstream down")
	}), quietLog())
	assert.Error(t, failing.Run())
}
