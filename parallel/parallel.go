// Package parallel is the shared fork-join executor Coarsen's Phase 1,
// Refine's sweep, and Swap's marked-edge passes all build on: one logical
// worker per goroutine, no cooperative scheduling, no suspension points
// other than the barrier at the end of Run. It plays the role the
// teacher's OCCA kernel-dispatch loop (runner.Runner.Run) plays for GPU
// kernels, reimagined for CPU goroutines via errgroup.
package parallel

import "golang.org/x/sync/errgroup"

// WorkerFunc is the unit of parallel work; worker is this call's 0-based
// index in [0, workers), the "explicit worker identity" spec.md §9 calls
// for in place of thread-local globals.
type WorkerFunc func(worker int) error

// Run launches exactly `workers` goroutines, each invoking fn once with
// its worker index, and blocks until every one returns. The first non-nil
// error is returned once all goroutines have finished; other goroutines
// are not cancelled early since operators do not have safe rollback points
// mid-pass.
func Run(workers int, fn WorkerFunc) error {
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			return fn(w)
		})
	}
	return g.Wait()
}

// ProgressFunc is one fixed-point pass: it returns whether this worker
// made progress during the pass, and any error.
type ProgressFunc func(worker int) (progressed bool, err error)

// RunUntilFixedPoint repeatedly runs fn across `workers` goroutines until
// an entire pass reports no progress from any worker, or maxPasses is
// exhausted (0 means unbounded). It fits a pass whose entire per-pass state
// can be recomputed independently inside each worker's closure; Coarsen's
// Phase 1 and Swap's marked-edge loop both need a single-threaded setup
// step between passes (repartitioning, recoloring) that this shape has no
// room for, so they loop over Run directly instead.
func RunUntilFixedPoint(workers int, maxPasses int, fn ProgressFunc) error {
	for pass := 0; maxPasses == 0 || pass < maxPasses; pass++ {
		progressFlags := make([]bool, workers)
		if err := Run(workers, func(w int) error {
			p, err := fn(w)
			progressFlags[w] = p
			return err
		}); err != nil {
			return err
		}

		any := false
		for _, p := range progressFlags {
			if p {
				any = true
				break
			}
		}
		if !any {
			return nil
		}
	}
	return nil
}
