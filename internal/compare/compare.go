// Package compare runs several schedulers over the same workload and
// aggregates their metrics side by side.
package compare

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/schedsim/internal/aadrr"
	"github.com/nvandessel/schedsim/internal/baseline"
	"github.com/nvandessel/schedsim/internal/metrics"
	"github.com/nvandessel/schedsim/internal/models"
)

// Scheduler is anything that turns a workload into a schedule.
// Implementations must not mutate procs.
type Scheduler interface {
	Name() string
	Schedule(procs []models.Process) (models.Schedule, error)
}

// Entry is one scheduler's outcome.
type Entry struct {
	Name     string          `json:"name"`
	Schedule models.Schedule `json:"schedule"`
	Summary  metrics.Summary `json:"summary"`
}

// Comparison holds entries in the order the schedulers were given.
type Comparison struct {
	Processes []models.Process `json:"processes"`
	Entries   []Entry          `json:"entries"`
}

// Options selects the parameters of the default scheduler set.
type Options struct {
	BurstWeight    int
	PriorityWeight int
	RRQuantum      int
}

// DefaultSchedulers returns AADRR, FCFS and round robin configured from opts.
func DefaultSchedulers(opts Options) []Scheduler {
	cfg := aadrr.DefaultConfig()
	cfg.BurstWeight = opts.BurstWeight
	cfg.PriorityWeight = opts.PriorityWeight
	return []Scheduler{aadrr.NewScheduler(cfg), baseline.FCFS{}, baseline.NewRoundRobin(opts.RRQuantum)}
}

// Run executes every scheduler concurrently, each on its own copy of procs.
// The first failure cancels the comparison.
func Run(ctx context.Context, procs []models.Process, schedulers ...Scheduler) (*Comparison, error) {
	if len(schedulers) == 0 {
		return nil, fmt.Errorf("no schedulers to compare")
	}
	if err := models.ValidateWorkload(procs); err != nil {
		return nil, err
	}

	entries := make([]Entry, len(schedulers))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range schedulers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			own := models.CloneProcesses(procs)
			sched, err := s.Schedule(own)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Name(), err)
			}
			if sched.Algorithm == "" {
				sched.Algorithm = s.Name()
			}
			summary, err := metrics.Compute(procs, sched)
			if err != nil {
				return fmt.Errorf("%s metrics: %w", s.Name(), err)
			}
			entries[i] = Entry{Name: s.Name(), Schedule: sched, Summary: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Comparison{
		Processes: models.CloneProcesses(procs),
		Entries:   entries,
	}, nil
}

// Best names the winning scheduler per averaged metric. Lower is better;
// ties go to the scheduler listed first.
type Best struct {
	Turnaround string `json:"turnaround"`
	Waiting    string `json:"waiting"`
	Response   string `json:"response"`
	// Balanced minimises (avg turnaround + avg waiting) / 2.
	Balanced string `json:"balanced"`
}

// Best computes the per-metric winners. It returns the zero value for an
// empty comparison.
func (c *Comparison) Best() Best {
	if c == nil || len(c.Entries) == 0 {
		return Best{}
	}
	pick := func(score func(metrics.Summary) float64) string {
		best := c.Entries[0]
		for _, e := range c.Entries[1:] {
			if score(e.Summary) < score(best.Summary) {
				best = e
			}
		}
		return best.Name
	}
	return Best{
		Turnaround: pick(func(s metrics.Summary) float64 { return s.AvgTurnaround }),
		Waiting:    pick(func(s metrics.Summary) float64 { return s.AvgWaiting }),
		Response:   pick(func(s metrics.Summary) float64 { return s.AvgResponse }),
		Balanced:   pick(func(s metrics.Summary) float64 { return (s.AvgTurnaround + s.AvgWaiting) / 2 }),
	}
}

// Entry returns the entry for the named scheduler.
func (c *Comparison) Entry(name string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
