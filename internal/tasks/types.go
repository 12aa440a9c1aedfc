package tasks

import "time"

// Task Types
const (
	// Payment webhook confirmations that failed inline and get retried
	// out of band
	TaskTypePaymentRetry = "payment:retry"
	// Periodic sweep marking expired publisher invites
	TaskTypeInviteExpiry = "invites:expire"
	// Periodic sweep emitting pending withdrawal reminders
	TaskTypePayoutSweep = "payouts:sweep"
)

// Task Queues
const (
	QueueCritical = "critical" // For payment settlement retries
	QueueDefault  = "default"  // For regular tasks
	QueueLow      = "low"      // For background sweeps
)

// Task Priorities (1-10, higher is more important)
const (
	PriorityCritical = 10
	PriorityHigh     = 8
	PriorityNormal   = 5
	PriorityLow      = 3
	PriorityBG       = 1
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
	TimeoutLong   = 30 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
	RetryMin     = 1
)
