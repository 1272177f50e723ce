package aadrr

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nvandessel/schedsim/internal/models"
)

// Default rank weights.
const (
	DefaultBurstWeight    = 10
	DefaultPriorityWeight = 5
)

// AlgorithmName identifies AADRR in schedules, reports and stored runs.
const AlgorithmName = "AADRR"

var (
	// ErrInvalidInput is returned by NewEngine for an empty workload or a
	// descriptor with a non-positive burst, a negative arrival or a repeated pid.
	ErrInvalidInput = models.ErrInvalidInput

	// ErrDeadlock is returned by Run when the clock passes
	// max(arrival) + sum(burst) + 1 with work still outstanding.
	ErrDeadlock = errors.New("deadlock")
)

// Config holds the tunable parameters of the engine.
type Config struct {
	// BurstWeight (A) multiplies the remaining burst in the rank formula. Default: 10.
	BurstWeight int

	// PriorityWeight (B) multiplies the priority in the rank formula. Default: 5.
	PriorityWeight int

	// Logger receives one debug record per cycle and per completion.
	// Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		BurstWeight:    DefaultBurstWeight,
		PriorityWeight: DefaultPriorityWeight,
	}
}

// Result bundles the four outputs of a run. It is only ever returned whole.
type Result struct {
	Timeline    []models.Slot         `json:"timeline"`
	Completed   []models.Completion   `json:"completed"`
	QuantumLog  []models.QuantumEntry `json:"quantum_log"`
	DecisionLog []models.Decision     `json:"decision_log"`
}

// Schedule converts the result into the algorithm-independent form.
func (r *Result) Schedule() models.Schedule {
	return models.Schedule{
		Algorithm: AlgorithmName,
		Timeline:  r.Timeline,
		Completed: r.Completed,
	}
}

// Engine runs AADRR over a fixed workload.
type Engine struct {
	procs  []models.Process
	cfg    Config
	logger *slog.Logger
}

// procState is the mutable per-run view of one descriptor.
type procState struct {
	desc       models.Process
	remaining  int
	response   *int
	completion *int
}

func (ps *procState) ready(now int) bool {
	return ps.desc.Arrival <= now && ps.remaining > 0
}

// NewEngine validates the workload and returns an engine for it.
// The descriptors are copied; later changes to procs do not affect the engine.
func NewEngine(procs []models.Process, cfg Config) (*Engine, error) {
	if err := Validate(procs); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		procs:  models.CloneProcesses(procs),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Validate checks a workload against the engine's input contract.
func Validate(procs []models.Process) error {
	return models.ValidateWorkload(procs)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Run simulates the workload to completion.
func (e *Engine) Run() (*Result, error) {
	states := make([]*procState, len(e.procs))
	for i, p := range e.procs {
		states[i] = &procState{desc: p, remaining: p.Burst}
	}

	limit := timeBound(e.procs)
	res := &Result{
		Timeline:    []models.Slot{},
		Completed:   []models.Completion{},
		QuantumLog:  []models.QuantumEntry{},
		DecisionLog: []models.Decision{},
	}

	now, cycle := 0, 0
	for !allDone(states) {
		if now > limit {
			return nil, fmt.Errorf("%w: clock reached %d (bound %d) with %d processes unfinished",
				ErrDeadlock, now, limit, countUnfinished(states))
		}

		var ready []*procState
		for _, ps := range states {
			if ps.ready(now) {
				ready = append(ready, ps)
			}
		}
		if len(ready) == 0 {
			now++
			continue
		}

		quantum := computeQuantum(states)
		ranked := e.rankReady(ready)

		pids := make([]string, len(ranked))
		for i, ps := range ranked {
			pids[i] = ps.desc.PID
		}
		res.QuantumLog = append(res.QuantumLog, models.QuantumEntry{Time: now, Quantum: quantum})
		res.DecisionLog = append(res.DecisionLog, models.Decision{
			Cycle:      cycle,
			StartTime:  now,
			Quantum:    quantum,
			RankedPIDs: pids,
		})
		e.logger.Debug("aadrr cycle", "cycle", cycle, "time", now, "quantum", quantum, "ranked", pids)
		cycle++

		// Only the head runs; everything else is re-ranked next cycle.
		head := ranked[0]
		start := now
		if head.response == nil {
			rt := start - head.desc.Arrival
			head.response = &rt
		}

		exec := min(head.remaining, quantum)
		res.Timeline = append(res.Timeline, models.Slot{PID: head.desc.PID, Start: start, End: start + exec})
		now += exec
		head.remaining -= exec

		if head.remaining == 0 {
			done := now
			head.completion = &done
			c := models.NewCompletion(head.desc, done, head.desc.Arrival+*head.response)
			res.Completed = append(res.Completed, c)
			e.logger.Debug("aadrr completion", "pid", c.PID, "time", done,
				"turnaround", c.Turnaround, "waiting", c.Waiting, "response", c.Response)
		}
	}

	return res, nil
}

// Scheduler adapts the engine to the workload-in, schedule-out shape shared
// with the baseline schedulers. Each call builds and runs a fresh engine.
type Scheduler struct {
	Config Config
}

// NewScheduler returns a Scheduler using cfg.
func NewScheduler(cfg Config) Scheduler {
	return Scheduler{Config: cfg}
}

// Name implements compare.Scheduler.
func (s Scheduler) Name() string {
	return AlgorithmName
}

// Schedule implements compare.Scheduler.
func (s Scheduler) Schedule(procs []models.Process) (models.Schedule, error) {
	eng, err := NewEngine(procs, s.Config)
	if err != nil {
		return models.Schedule{}, err
	}
	res, err := eng.Run()
	if err != nil {
		return models.Schedule{}, err
	}
	return res.Schedule(), nil
}

// computeQuantum takes the median over every incomplete process, arrived or not.
func computeQuantum(states []*procState) int {
	var remaining []int
	for _, ps := range states {
		if ps.remaining > 0 {
			remaining = append(remaining, ps.remaining)
		}
	}
	return MedianQuantum(remaining)
}

func allDone(states []*procState) bool {
	for _, ps := range states {
		if ps.remaining != 0 {
			return false
		}
	}
	return true
}

func countUnfinished(states []*procState) int {
	n := 0
	for _, ps := range states {
		if ps.remaining != 0 {
			n++
		}
	}
	return n
}

// timeBound is the latest clock value a valid workload can reach.
func timeBound(procs []models.Process) int {
	maxArrival, total := 0, 0
	for _, p := range procs {
		maxArrival = max(maxArrival, p.Arrival)
		total += p.Burst
	}
	return maxArrival + total + 1
}
