package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	dates []time.Time
	err   error
}

func (r *recordingSender) SendReport(_ context.Context, d time.Time) error {
	r.dates = append(r.dates, d)
	return r.err
}

func TestPreviousBusinessDay(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"tuesday", time.Date(2024, 1, 16, 7, 0, 0, 0, time.UTC), "2024-01-15"},
		{"monday skips weekend", time.Date(2024, 1, 15, 7, 0, 0, 0, time.UTC), "2024-01-12"},
		{"sunday", time.Date(2024, 1, 14, 7, 0, 0, 0, time.UTC), "2024-01-12"},
		{"month boundary", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC), "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreviousBusinessDay(tt.now).Format("2006-01-02"))
		})
	}
}

func TestDailyReportJob_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	sender := &recordingSender{}
	job := NewDailyReportJob(sender, "0 0 7 * * MON-FRI", tokyo, nil)
	// Tuesday 02:00 in Tokyo is still Monday in UTC
	job.now = func() time.Time { return time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, sender.dates, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), sender.dates[0])

	assert.Equal(t, DailyReportJobName, job.Name())
	assert.Equal(t, "0 0 7 * * MON-FRI", job.Schedule())
}

func TestDailyReportJob_PropagatesError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	job := NewDailyReportJob(sender, "@daily", nil, nil)
	assert.Error(t, job.Run(context.Background()))
}

type countingCleaner struct {
	calls   int
	removed int
}

func (c *countingCleaner) CleanStale() int {
	c.calls++
	return c.removed
}

func TestCacheCleanupJob(t *testing.T) {
	cleaner := &countingCleaner{removed: 2}
	job := NewCacheCleanupJob(cleaner, nil)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 2, cleaner.calls)
	assert.Equal(t, CacheCleanupJobName, job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
}
