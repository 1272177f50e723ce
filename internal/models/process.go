package models

// Process describes a unit of work submitted to a scheduler.
// Descriptors are immutable once loaded; schedulers copy them before mutating state.
type Process struct {
	// PID uniquely identifies the process within a workload
	PID string `json:"pid" yaml:"pid"`

	// Arrival is the time at which the process becomes eligible to run
	Arrival int `json:"arrival" yaml:"arrival"`

	// Burst is the total CPU time the process needs
	Burst int `json:"burst" yaml:"burst"`

	// Priority only has the meaning the scheduler's rank formula gives it
	Priority int `json:"priority" yaml:"priority"`
}

// CloneProcesses returns a copy of procs that shares no backing array with the input.
func CloneProcesses(procs []Process) []Process {
	if procs == nil {
		return nil
	}
	out := make([]Process, len(procs))
	copy(out, procs)
	return out
}

// IndexByPID maps each pid to its descriptor.
func IndexByPID(procs []Process) map[string]Process {
	idx := make(map[string]Process, len(procs))
	for _, p := range procs {
		idx[p.PID] = p
	}
	return idx
}
