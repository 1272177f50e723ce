package baseline

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nvandessel/schedsim/internal/models"
)

// DefaultQuantum is the fixed round robin time slice.
const DefaultQuantum = 4

// RoundRobin rotates a FIFO ready queue with a fixed quantum.
type RoundRobin struct {
	Quantum int
}

// NewRoundRobin returns a round robin scheduler; a non-positive quantum
// selects DefaultQuantum.
func NewRoundRobin(quantum int) RoundRobin {
	if quantum <= 0 {
		quantum = DefaultQuantum
	}
	return RoundRobin{Quantum: quantum}
}

// Name implements compare.Scheduler.
func (r RoundRobin) Name() string {
	return fmt.Sprintf("RR(q=%d)", r.Quantum)
}

type rrState struct {
	desc       models.Process
	remaining  int
	firstStart int
	started    bool
}

// Schedule implements compare.Scheduler.
//
// Processes that arrive while a slice is running are queued in arrival order,
// ahead of the preempted process. Equal arrivals keep input order. An empty
// queue advances the clock one tick.
func (r RoundRobin) Schedule(procs []models.Process) (models.Schedule, error) {
	if r.Quantum <= 0 {
		return models.Schedule{}, fmt.Errorf("%w: quantum must be positive, got %d", ErrInvalidInput, r.Quantum)
	}
	if err := models.ValidateWorkload(procs); err != nil {
		return models.Schedule{}, err
	}

	states := make([]*rrState, len(procs))
	for i, p := range procs {
		states[i] = &rrState{desc: p, remaining: p.Burst}
	}

	sched := models.Schedule{
		Algorithm: r.Name(),
		Timeline:  []models.Slot{},
		Completed: make([]models.Completion, 0, len(procs)),
	}

	byArrival := make([]int, len(states))
	for i := range byArrival {
		byArrival[i] = i
	}
	slices.SortStableFunc(byArrival, func(a, b int) int {
		return cmp.Compare(states[a].desc.Arrival, states[b].desc.Arrival)
	})

	// next indexes the first process in byArrival not yet queued.
	next := 0
	var queue []int
	admit := func(now int) {
		for next < len(byArrival) && states[byArrival[next]].desc.Arrival <= now {
			queue = append(queue, byArrival[next])
			next++
		}
	}

	now := 0
	for len(sched.Completed) < len(states) {
		admit(now)
		if len(queue) == 0 {
			now++
			continue
		}

		idx := queue[0]
		queue = queue[1:]
		ps := states[idx]

		if !ps.started {
			ps.started = true
			ps.firstStart = now
		}

		exec := min(r.Quantum, ps.remaining)
		sched.Timeline = append(sched.Timeline, models.Slot{PID: ps.desc.PID, Start: now, End: now + exec})
		now += exec
		ps.remaining -= exec

		admit(now)
		if ps.remaining > 0 {
			queue = append(queue, idx)
			continue
		}
		sched.Completed = append(sched.Completed, models.NewCompletion(ps.desc, now, ps.firstStart))
	}

	return sched, nil
}
