// Package stage implements the two-stage map/reduce reduction pattern
// used by the richness and endemism kernels: a bounded pool of OS-process
// workers computes per-partition partials (stage 1), and a single worker
// merges them into one output raster (stage 2).
//
// Workers are OS processes, not goroutines, because each one opens its
// own GDAL dataset handles and block cache; running them in-process would
// share that state across what the source pipeline treats as independent
// workers. A worker is the same binary re-executed with a hidden flag
// telling it which registered stage function to run and which item to
// read from stdin, mirroring Python's Process-per-worker model without
// Python's GIL motivation.
package stage

import "fmt"

// WorkItem is one stage-1 input: a key (typically a species id) and the
// raster paths contributing to it.
type WorkItem struct {
	Key   string   `json:"key"`
	Paths []string `json:"paths"`
}

// Stage1Func computes one worker's running partial across the WorkItems
// it was assigned, writing the partial raster to partialPath.
type Stage1Func func(items []WorkItem, partialPath string) error

// Stage2Func merges the stage-1 partial rasters at partialPaths into one
// final raster at outputPath.
type Stage2Func func(partialPaths []string, outputPath string) error

// kernel holds one registered stage's pair of worker functions.
type kernel struct {
	stage1 Stage1Func
	stage2 Stage2Func
}

var registry = map[string]kernel{}

// Register associates name with the Stage1/Stage2 functions a worker
// subprocess invoked with --stage-worker=name should run. Call this
// unconditionally at command-construction time (not only when acting as
// manager) so that a re-exec'd worker process, which runs the same
// binary from the same entrypoint, finds the same registration.
func Register(name string, stage1 Stage1Func, stage2 Stage2Func) {
	registry[name] = kernel{stage1: stage1, stage2: stage2}
}

func lookup(name string) (kernel, error) {
	k, ok := registry[name]
	if !ok {
		return kernel{}, fmt.Errorf("stage: no kernel registered under %q", name)
	}
	return k, nil
}
