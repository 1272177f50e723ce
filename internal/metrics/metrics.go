// Package metrics derives per-process timing rows and workload averages from
// a schedule's timeline and completion records.
package metrics

import (
	"fmt"

	"github.com/nvandessel/schedsim/internal/models"
)

// Row is the metric line for one process, in completion order.
type Row struct {
	PID        string `json:"pid"`
	Arrival    int    `json:"arrival"`
	Burst      int    `json:"burst"`
	Completion int    `json:"completion"`
	Turnaround int    `json:"turnaround"`
	Waiting    int    `json:"waiting"`
	Response   int    `json:"response"`
}

// Summary aggregates the rows of one schedule.
type Summary struct {
	Algorithm       string  `json:"algorithm"`
	Rows            []Row   `json:"rows"`
	AvgTurnaround   float64 `json:"avg_turnaround"`
	AvgWaiting      float64 `json:"avg_waiting"`
	AvgResponse     float64 `json:"avg_response"`
	Makespan        int     `json:"makespan"`
	BusyTime        int     `json:"busy_time"`
	Utilization     float64 `json:"utilization"`
	Throughput      float64 `json:"throughput"`
	ContextSwitches int     `json:"context_switches"`
}

// Compute builds the summary for sched. Times are recomputed from the
// original descriptors, and response time comes from the first slot of each
// pid rather than from the scheduler's own record.
func Compute(procs []models.Process, sched models.Schedule) (Summary, error) {
	byPID := models.IndexByPID(procs)

	firstStart := make(map[string]int, len(procs))
	busy, makespan, switches := 0, 0, 0
	for i, slot := range sched.Timeline {
		if _, ok := firstStart[slot.PID]; !ok {
			firstStart[slot.PID] = slot.Start
		}
		busy += slot.Duration()
		makespan = max(makespan, slot.End)
		if i > 0 && sched.Timeline[i-1].PID != slot.PID {
			switches++
		}
	}

	s := Summary{
		Algorithm:       sched.Algorithm,
		Rows:            make([]Row, 0, len(sched.Completed)),
		Makespan:        makespan,
		BusyTime:        busy,
		ContextSwitches: switches,
	}

	var totalTAT, totalWT, totalRT int
	for _, c := range sched.Completed {
		p, ok := byPID[c.PID]
		if !ok {
			return Summary{}, fmt.Errorf("completion for unknown pid %q", c.PID)
		}
		start, ok := firstStart[c.PID]
		if !ok {
			return Summary{}, fmt.Errorf("pid %q completed without executing", c.PID)
		}
		tat := c.Completion - p.Arrival
		row := Row{
			PID:        c.PID,
			Arrival:    p.Arrival,
			Burst:      p.Burst,
			Completion: c.Completion,
			Turnaround: tat,
			Waiting:    tat - p.Burst,
			Response:   start - p.Arrival,
		}
		s.Rows = append(s.Rows, row)
		totalTAT += row.Turnaround
		totalWT += row.Waiting
		totalRT += row.Response
	}

	if n := len(s.Rows); n > 0 {
		s.AvgTurnaround = float64(totalTAT) / float64(n)
		s.AvgWaiting = float64(totalWT) / float64(n)
		s.AvgResponse = float64(totalRT) / float64(n)
	}
	if makespan > 0 {
		s.Utilization = float64(busy) / float64(makespan)
		s.Throughput = float64(len(s.Rows)) / float64(makespan)
	}

	return s, nil
}
