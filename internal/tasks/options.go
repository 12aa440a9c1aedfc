package tasks

import (
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// CronSchedule defers a task to the next occurrence of a cron
// expression. Used for work that belongs in a batch window, like payout
// sweeps, rather than the moment it was requested.
func CronSchedule(expr string) asynq.Option {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		// Fall back to default interval if parsing fails
		return asynq.ProcessIn(1 * time.Hour)
	}
	return asynq.ProcessAt(schedule.Next(time.Now()))
}
