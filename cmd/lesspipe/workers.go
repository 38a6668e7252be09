package main

import "runtime"

// maxAutoWorkers caps the automatic worker count; each worker runs a lessc
// process, which is heavier than its CPU share suggests.
const maxAutoWorkers = 8

// resolveWorkers determines the number of parallel renders.
// Priority: flag > env > config > GOMAXPROCS-based calculation.
func resolveWorkers(flagWorkers, envWorkers, configWorkers int) int {
	for _, n := range []int{flagWorkers, envWorkers, configWorkers} {
		if n > 0 {
			return n
		}
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	if n > maxAutoWorkers {
		return maxAutoWorkers
	}
	return n
}
