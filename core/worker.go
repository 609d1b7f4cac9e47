package core

import "time"

// Worker is a background job run by the Orchestrator on a cron schedule.
// Ready is asked on every tick; a worker still busy with the previous run
// returns false and the tick is skipped.
type Worker interface {
	// Name labels the worker in logs and metrics.
	Name() string
	Schedule() string
	Ready(now time.Time) bool
	Execute()
}
