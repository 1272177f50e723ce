package models

// Slot is one contiguous stretch of CPU time given to a process.
type Slot struct {
	PID   string `json:"pid"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Duration returns End - Start.
func (s Slot) Duration() int {
	return s.End - s.Start
}

// Completion is the record emitted once when a process finishes.
type Completion struct {
	PID        string `json:"pid"`
	Completion int    `json:"completion"`
	Arrival    int    `json:"arrival"`
	Burst      int    `json:"burst"`
	Turnaround int    `json:"turnaround"`
	Waiting    int    `json:"waiting"`
	Response   int    `json:"response"`
}

// NewCompletion derives turnaround and waiting time from the raw timestamps.
func NewCompletion(p Process, completion, firstStart int) Completion {
	tat := completion - p.Arrival
	return Completion{
		PID:        p.PID,
		Completion: completion,
		Arrival:    p.Arrival,
		Burst:      p.Burst,
		Turnaround: tat,
		Waiting:    tat - p.Burst,
		Response:   firstStart - p.Arrival,
	}
}

// QuantumEntry records the dynamic quantum chosen at the start of a cycle.
type QuantumEntry struct {
	Time    int `json:"time"`
	Quantum int `json:"quantum"`
}

// Decision records one scheduling cycle: when it started, the quantum in force
// and the ready processes in ranked order.
type Decision struct {
	Cycle      int      `json:"cycle"`
	StartTime  int      `json:"start_time"`
	Quantum    int      `json:"quantum"`
	RankedPIDs []string `json:"ranked_pids"`
}

// Schedule is the algorithm-independent output every scheduler produces.
type Schedule struct {
	Algorithm string       `json:"algorithm"`
	Timeline  []Slot       `json:"timeline"`
	Completed []Completion `json:"completed"`
}
