package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a workload that no scheduler will accept.
var ErrInvalidInput = errors.New("invalid input")

// ValidateWorkload rejects an empty list, empty or repeated pids,
// non-positive bursts and negative arrivals.
func ValidateWorkload(procs []Process) error {
	if len(procs) == 0 {
		return fmt.Errorf("%w: process list is empty", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(procs))
	for i, p := range procs {
		if p.PID == "" {
			return fmt.Errorf("%w: process %d has an empty pid", ErrInvalidInput, i)
		}
		if seen[p.PID] {
			return fmt.Errorf("%w: duplicate pid %q", ErrInvalidInput, p.PID)
		}
		seen[p.PID] = true
		if p.Burst <= 0 {
			return fmt.Errorf("%w: process %s has non-positive burst %d", ErrInvalidInput, p.PID, p.Burst)
		}
		if p.Arrival < 0 {
			return fmt.Errorf("%w: process %s has negative arrival %d", ErrInvalidInput, p.PID, p.Arrival)
		}
	}
	return nil
}
