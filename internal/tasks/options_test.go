package tasks

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronScheduleTargetsNextOccurrence(t *testing.T) {
	opt := CronSchedule("0 9 * * *")
	require.Equal(t, asynq.ProcessAtOpt, opt.Type())

	at, ok := opt.Value().(time.Time)
	require.True(t, ok)

	schedule, err := cron.ParseStandard("0 9 * * *")
	require.NoError(t, err)
	assert.WithinDuration(t, schedule.Next(time.Now()), at, time.Minute)
	assert.True(t, at.After(time.Now()))
}

func TestCronScheduleInvalidExpressionFallsBack(t *testing.T) {
	opt := CronSchedule("not-a-cron")
	require.Equal(t, asynq.ProcessInOpt, opt.Type())

	delay, ok := opt.Value().(time.Duration)
	require.True(t, ok)
	assert.Equal(t, time.Hour, delay)
}
