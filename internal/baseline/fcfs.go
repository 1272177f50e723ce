// Package baseline provides the reference schedulers AADRR is compared
// against: first-come first-served and fixed-quantum round robin.
package baseline

import (
	"cmp"
	"slices"

	"github.com/nvandessel/schedsim/internal/models"
)

// ErrInvalidInput is shared with every other scheduler in the module.
var ErrInvalidInput = models.ErrInvalidInput

// FCFS runs processes to completion in arrival order.
type FCFS struct{}

// Name implements compare.Scheduler.
func (FCFS) Name() string {
	return "FCFS"
}

// Schedule implements compare.Scheduler. Processes with equal arrival keep
// their input order. The CPU idles forward to the next arrival when empty.
func (f FCFS) Schedule(procs []models.Process) (models.Schedule, error) {
	if err := models.ValidateWorkload(procs); err != nil {
		return models.Schedule{}, err
	}

	ordered := models.CloneProcesses(procs)
	slices.SortStableFunc(ordered, func(a, b models.Process) int {
		return cmp.Compare(a.Arrival, b.Arrival)
	})

	sched := models.Schedule{
		Algorithm: f.Name(),
		Timeline:  make([]models.Slot, 0, len(ordered)),
		Completed: make([]models.Completion, 0, len(ordered)),
	}

	now := 0
	for _, p := range ordered {
		now = max(now, p.Arrival)
		start := now
		now += p.Burst
		sched.Timeline = append(sched.Timeline, models.Slot{PID: p.PID, Start: start, End: now})
		sched.Completed = append(sched.Completed, models.NewCompletion(p, now, start))
	}

	return sched, nil
}
