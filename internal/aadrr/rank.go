package aadrr

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
)

// levelTrace matches the CLI's trace level, one step below debug.
const levelTrace = slog.LevelDebug - 4

// Rank scores a process for the current cycle. Lower ranks run first.
func Rank(burstWeight, priorityWeight, remaining, priority int) int {
	return burstWeight*remaining + priorityWeight*priority
}

// MedianQuantum returns the integer median of the given remaining bursts.
// For an even count the mean of the two middle values is truncated.
// An empty set yields a quantum of 1.
func MedianQuantum(remaining []int) int {
	if len(remaining) == 0 {
		return 1
	}
	sorted := slices.Clone(remaining)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	// Bursts are positive, so integer division truncates the same way int(float) would.
	return (sorted[mid-1] + sorted[mid]) / 2
}

// rankReady orders ready processes by ascending rank. The sort is stable and
// ready is built in input order, so input position breaks ties.
func (e *Engine) rankReady(ready []*procState) []*procState {
	ranked := slices.Clone(ready)
	slices.SortStableFunc(ranked, func(a, b *procState) int {
		return cmp.Compare(e.rank(a), e.rank(b))
	})
	if e.logger.Enabled(context.Background(), levelTrace) {
		for _, ps := range ranked {
			e.logger.Log(context.Background(), levelTrace, "aadrr rank",
				"pid", ps.desc.PID, "remaining", ps.remaining, "priority", ps.desc.Priority, "rank", e.rank(ps))
		}
	}
	return ranked
}

func (e *Engine) rank(ps *procState) int {
	return Rank(e.cfg.BurstWeight, e.cfg.PriorityWeight, ps.remaining, ps.desc.Priority)
}
