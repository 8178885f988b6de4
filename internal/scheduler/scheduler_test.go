package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPurger struct {
	mock.Mock
}

func (m *mockPurger) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestRunRetentionUsesCutoff(t *testing.T) {
	purger := new(mockPurger)
	want := fixedNow().Add(-72 * time.Hour)
	purger.On("DeleteOlderThan", mock.Anything, want).Return(int64(17), nil)

	s := NewScheduler(purger, nil)
	s.now = fixedNow

	deleted, err := s.RunRetention(context.Background(), 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(17), deleted)
	purger.AssertExpectations(t)
}

func TestRunRetentionWrapsError(t *testing.T) {
	purger := new(mockPurger)
	dbErr := errors.New("connection reset")
	purger.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), dbErr)

	s := NewScheduler(purger, nil)
	_, err := s.RunRetention(context.Background(), time.Hour)
	assert.ErrorIs(t, err, dbErr)
}

func TestScheduleRetentionValidation(t *testing.T) {
	s := NewScheduler(new(mockPurger), nil)

	assert.Error(t, s.ScheduleRetention("0 3 * * *", 0))
	assert.Error(t, s.ScheduleRetention("not a cron", time.Hour))
	assert.Error(t, s.Start(), "no jobs scheduled")

	require.NoError(t, s.ScheduleRetention("0 3 * * *", 24*time.Hour))
	assert.Len(t, s.Entries(), 1)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := NewScheduler(new(mockPurger), nil)
	require.NoError(t, s.ScheduleRetention("@every 1h", time.Hour))

	assert.True(t, s.GetNextRun().IsZero())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleRetention("@daily", time.Hour))
	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())
}
