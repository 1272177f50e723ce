// Package aadrr implements the Adaptive Dynamic Round Robin scheduling engine.
//
// AADRR differs from classic round robin in two ways. The time quantum is
// recomputed at the start of every cycle as the integer median of the
// remaining burst of every incomplete process, so it shrinks as the workload
// drains. The ready set is not rotated FIFO: it is re-ranked every cycle by
//
//	rank(p) = A*remaining(p) + B*priority(p)
//
// and only the lowest-ranked process runs, for min(remaining, quantum). The
// other ready processes are re-ranked on the next cycle with a possibly
// different quantum.
//
// The engine is a pure, single-threaded computation. Each Run works on a
// private copy of the descriptors, so one Engine may be run repeatedly and
// separate engines may run in parallel.
package aadrr
